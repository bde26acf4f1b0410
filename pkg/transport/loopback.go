package transport

// Loopback is an in-memory Port for tests and examples. Bytes queued
// with Feed appear on the read side; bytes written with Write are
// collected in Sent.
type Loopback struct {
	// Sent collects everything written to the port.
	Sent []byte
	// OpenedAt records the baud rate passed to Open, 0 when closed.
	OpenedAt int
	// Flushes counts Flush calls.
	Flushes int

	rx   []byte
	open bool
}

// NewLoopback creates a closed loopback port.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Feed queues bytes on the read side.
func (l *Loopback) Feed(b ...byte) {
	l.rx = append(l.rx, b...)
}

// Open implements Port.
func (l *Loopback) Open(baudRate int) error {
	l.open, l.OpenedAt = true, baudRate
	return nil
}

// BytesAvailable implements Port.
func (l *Loopback) BytesAvailable() int {
	return len(l.rx)
}

// ReadByte implements Port.
func (l *Loopback) ReadByte() (byte, error) {
	if len(l.rx) == 0 {
		return 0, ErrNoData
	}
	b := l.rx[0]
	l.rx = l.rx[1:]
	return b, nil
}

// Write implements Port.
func (l *Loopback) Write(p []byte) (int, error) {
	if !l.open {
		return 0, ErrClosed
	}
	l.Sent = append(l.Sent, p...)
	return len(p), nil
}

// Flush implements Port.
func (l *Loopback) Flush() error {
	l.rx = nil
	l.Flushes++
	return nil
}

// Close implements Port.
func (l *Loopback) Close() error {
	l.open, l.OpenedAt = false, 0
	return nil
}
