package crsf

import (
	"time"

	"github.com/golang/glog"
)

type decodeState int

const (
	stateAddr   decodeState = iota // waiting for destination byte
	stateLength                    // waiting for length byte
	stateBody                      // collecting type, payload and CRC
)

// Decoder extracts validated frames from a CRSF byte stream.
//
// It is a pure state machine: one byte in per Feed call, a completed
// frame reported by the return value. The caller owns the pacing.
// Decoder is not safe for concurrent use.
type Decoder struct {
	// Now provides the time used for failsafe tracking. Defaults to
	// time.Now.
	Now func() time.Time

	state    decodeState
	buf      [FrameSizeMax]byte
	bodyLen  int
	received int

	channels    [ChannelCount]uint16
	hasRcData   bool
	linkStats   LinkStatistics
	lastRcFrame time.Time
	frameBudget time.Duration
}

// NewDecoder creates a Decoder ready to consume bytes.
func NewDecoder() *Decoder {
	return &Decoder{Now: time.Now}
}

// Init resets all decode and channel state.
func (d *Decoder) Init() error {
	if d.Now == nil {
		d.Now = time.Now
	}
	d.state = stateAddr
	d.hasRcData = false
	d.lastRcFrame = time.Time{}
	d.channels = [ChannelCount]uint16{}
	d.linkStats = LinkStatistics{}
	return nil
}

// Shutdown discards any partially received frame.
func (d *Decoder) Shutdown() {
	d.state = stateAddr
}

// ConfigureTiming derives the failsafe budget from the link baud rate.
// The budget is the wire time of overhead maximum-size frames; once the
// time since the last RC frame exceeds it, Failsafe reports true.
func (d *Decoder) ConfigureTiming(baudRate, overhead int) {
	if baudRate <= 0 || overhead <= 0 {
		d.frameBudget = 0
		return
	}
	// 10 bits per byte on the wire (8N1).
	frameTime := time.Duration(FrameSizeMax*10) * time.Second / time.Duration(baudRate)
	d.frameBudget = frameTime * time.Duration(overhead)
}

// Feed consumes one byte and reports whether it completed a valid
// frame. Bytes that do not fit the frame grammar or fail the CRC are
// discarded and the decoder hunts for the next destination byte.
func (d *Decoder) Feed(b byte) bool {
	switch d.state {
	case stateAddr:
		if b == AddrFlightController || b == AddrBroadcast {
			d.buf[0] = b
			d.state = stateLength
		}
	case stateLength:
		if b < FrameLengthMin || b > FrameLengthMax {
			d.state = stateAddr
			return false
		}
		d.buf[1] = b
		d.bodyLen, d.received = int(b), 0
		d.state = stateBody
	case stateBody:
		d.buf[2+d.received] = b
		d.received++
		if d.received < d.bodyLen {
			break
		}
		d.state = stateAddr
		body := d.buf[2 : 2+d.bodyLen]
		if CRC8(body[:len(body)-1]) != body[len(body)-1] {
			if glog.V(2) {
				glog.Infof("crsf: CRC mismatch on frame type 0x%02x", body[0])
			}
			return false
		}
		d.dispatch(body[0], body[1:len(body)-1])
		return true
	}
	return false
}

func (d *Decoder) dispatch(frameType byte, payload []byte) {
	switch frameType {
	case FrameTypeRcChannels:
		unpackChannels(payload, &d.channels)
		d.hasRcData = true
		d.lastRcFrame = d.Now()
	case FrameTypeLinkStatistics:
		decodeLinkStatistics(payload, &d.linkStats)
	default:
		// Valid frame of a type this layer does not consume.
		glog.V(2).Infof("crsf: ignoring frame type 0x%02x", frameType)
	}
}

// Channels copies the latest decoded channel values into out.
func (d *Decoder) Channels(out *[ChannelCount]uint16) {
	*out = d.channels
}

// HasRcData reports whether at least one RC channels frame has been
// decoded since Init.
func (d *Decoder) HasRcData() bool {
	return d.hasRcData
}

// Failsafe reports loss of signal: an RC frame has been seen and the
// time since the last one exceeds the budget set by ConfigureTiming.
func (d *Decoder) Failsafe() bool {
	if !d.hasRcData || d.frameBudget == 0 {
		return false
	}
	return d.Now().Sub(d.lastRcFrame) > d.frameBudget
}

// LinkStatistics returns the latest decoded link statistics.
func (d *Decoder) LinkStatistics() LinkStatistics {
	return d.linkStats
}
