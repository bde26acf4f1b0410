package transport

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// pollTimeout bounds how long BytesAvailable waits on the OS for new
// bytes. Short enough that callers perceive the port as non-blocking.
const pollTimeout = time.Millisecond

// NativePort is a Port backed by a hardware serial device.
type NativePort struct {
	// Device is the serial device path, e.g. "/dev/ttyUSB0" or "COM3".
	Device string

	port *serial.Port
	buf  []byte
}

// NewNativePort creates a port for the named serial device. The device
// is not opened until Open is called.
func NewNativePort(device string) *NativePort {
	return &NativePort{Device: device}
}

// Open implements Port.
func (p *NativePort) Open(baudRate int) error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        p.Device,
		Baud:        baudRate,
		ReadTimeout: pollTimeout,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", p.Device, err)
	}
	p.port = port
	p.buf = p.buf[:0]
	return nil
}

// fill pulls whatever the OS has buffered into the internal buffer.
// The underlying read times out quickly when the wire is idle.
func (p *NativePort) fill() {
	if p.port == nil {
		return
	}
	var chunk [256]byte
	n, err := p.port.Read(chunk[:])
	if n > 0 {
		p.buf = append(p.buf, chunk[:n]...)
	}
	_ = err // a timeout with n == 0 simply means no new bytes
}

// BytesAvailable implements Port.
func (p *NativePort) BytesAvailable() int {
	p.fill()
	return len(p.buf)
}

// ReadByte implements Port.
func (p *NativePort) ReadByte() (byte, error) {
	if p.port == nil {
		return 0, ErrClosed
	}
	if len(p.buf) == 0 {
		p.fill()
		if len(p.buf) == 0 {
			return 0, ErrNoData
		}
	}
	b := p.buf[0]
	p.buf = p.buf[1:]
	return b, nil
}

// Write implements Port.
func (p *NativePort) Write(b []byte) (int, error) {
	if p.port == nil {
		return 0, ErrClosed
	}
	return p.port.Write(b)
}

// Flush implements Port.
func (p *NativePort) Flush() error {
	if p.port == nil {
		return nil
	}
	p.buf = p.buf[:0]
	return p.port.Flush()
}

// Close implements Port.
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	p.buf = nil
	return err
}
