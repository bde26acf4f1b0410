// Package transport provides the serial byte transports the receiver
// controller runs on.
package transport

import "errors"

var (
	// ErrClosed indicates an operation on a port that is not open.
	ErrClosed = errors.New("port closed")
	// ErrNoData indicates a read with nothing buffered. Callers honoring
	// the BytesAvailable contract never see it.
	ErrNoData = errors.New("no bytes available")
)

// Port is a non-blocking byte transport. BytesAvailable and ReadByte
// together form a "check then read" pair: ReadByte must only be called
// while BytesAvailable reports a positive count, and never blocks.
type Port interface {
	// Open opens the port at the given baud rate.
	Open(baudRate int) error
	// BytesAvailable reports how many bytes can be read without
	// blocking.
	BytesAvailable() int
	// ReadByte reads one buffered byte.
	ReadByte() (byte, error)
	// Write sends bytes out on the wire.
	Write(p []byte) (int, error)
	// Flush discards bytes buffered but not yet read.
	Flush() error
	// Close closes the port. Closing a port that is not open is a
	// no-op.
	Close() error
}
