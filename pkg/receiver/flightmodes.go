package receiver

import "github.com/rcware/crsf.go/pkg/crsf"

// FlightModeID identifies a discrete flight mode derived from a channel
// range.
type FlightModeID int

// The built-in flight modes. Custom tables may use any ids below the
// configured FlightModeCount.
const (
	FlightModeDisarmed FlightModeID = iota
	FlightModeAcro
	FlightModeAngle
	FlightModeHorizon
	FlightModeAirmode
	FlightModePassthrough
	FlightModeGPSRescue
	FlightModeFailsafe
	flightModeIDCount
)

// Label returns the short display string sent in flight-mode telemetry.
func (id FlightModeID) Label() string {
	switch id {
	case FlightModeFailsafe:
		return "!FS!"
	case FlightModeGPSRescue:
		return "RTH"
	case FlightModePassthrough:
		return "MANU"
	case FlightModeAngle:
		return "STAB"
	case FlightModeHorizon:
		return "HOR"
	case FlightModeAirmode:
		return "AIR"
	default:
		return "ACRO"
	}
}

// Armed reports whether the mode implies the craft is armed.
func (id FlightModeID) Armed() bool {
	return id != FlightModeDisarmed
}

// flightModeEntry is one row of the flight-mode table: the mode is
// active while Value[channel] is inside [min, max].
type flightModeEntry struct {
	channel  int
	min, max uint16
}

// SetFlightMode stores the channel range for a mode id. It reports
// false and leaves the table unchanged when the id is outside the
// configured mode count or the channel index is out of range.
func (c *Controller) SetFlightMode(id FlightModeID, channel int, min, max uint16) bool {
	if int(id) < 0 || int(id) >= len(c.flightModes) {
		return false
	}
	if channel < 0 || channel >= crsf.ChannelCount {
		return false
	}
	c.flightModes[id] = flightModeEntry{channel: channel, min: min, max: max}
	return true
}

// HandleFlightMode scans the table in id order and invokes the
// flight-mode callback with the first mode whose channel value falls
// inside its range. At most one callback fires per call.
func (c *Controller) HandleFlightMode() {
	if c.flightModeCb == nil {
		return
	}
	for i := range c.flightModes {
		fm := &c.flightModes[i]
		v := c.rc.Value[fm.channel]
		if v >= fm.min && v <= fm.max {
			c.flightModeCb(FlightModeID(i))
			return
		}
	}
}
