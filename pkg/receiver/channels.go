package receiver

import (
	"math"

	"github.com/rcware/crsf.go/pkg/crsf"
)

// RcChannels is the latest decoded channel snapshot. Valid becomes true
// once any RC frame has been decoded and is never reset; Failsafe
// mirrors the link layer's loss-of-signal state.
//
// The Controller owns the snapshot. Callbacks receive a pointer that is
// only valid for the duration of the call.
type RcChannels struct {
	Value    [crsf.ChannelCount]uint16
	Valid    bool
	Failsafe bool
}

// Pulse width anchors for the protocol channel range.
const (
	UsMin    uint16 = 988
	UsCenter uint16 = 1500
	UsMax    uint16 = 2012
)

// The protocol range 172..1811 maps onto 988..2012us by an exact
// rational scale of 1024/1639 (~0.624771). Forward and inverse both
// round to nearest, which keeps the pair within one unit on a round
// trip.
const (
	usScaleNum = float64(UsMax - UsMin)                     // 1024
	usScaleDen = float64(crsf.ChannelMax - crsf.ChannelMin) // 1639
)

// RcToUs converts a protocol-native channel value to microseconds.
func RcToUs(rc uint16) uint16 {
	d := float64(int(rc) - int(crsf.ChannelMin))
	return clampU16(float64(UsMin) + math.Round(d*usScaleNum/usScaleDen))
}

// UsToRc converts microseconds to a protocol-native channel value. It
// is the exact inverse of RcToUs within one unit.
func UsToRc(us uint16) uint16 {
	d := float64(int(us) - int(UsMin))
	return clampU16(float64(crsf.ChannelMin) + math.Round(d*usScaleDen/usScaleNum))
}

// clampU16 saturates before converting; uint16(v) is
// implementation-specific for out-of-range floats.
func clampU16(v float64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

// ReadRcChannel reads one channel from the latest snapshot: the
// protocol-native value when raw, microseconds otherwise. Out-of-range
// channel indices read as 0.
func (c *Controller) ReadRcChannel(channel int, raw bool) uint16 {
	if channel < 0 || channel >= crsf.ChannelCount {
		return 0
	}
	if raw {
		return c.rc.Value[channel]
	}
	return RcToUs(c.rc.Value[channel])
}

// GetChannel reads one channel in protocol-native units.
func (c *Controller) GetChannel(channel int) uint16 {
	return c.ReadRcChannel(channel, true)
}

// Failsafe reports the failsafe flag of the latest snapshot.
func (c *Controller) Failsafe() bool {
	return c.rc.Failsafe
}
