package receiver

import (
	"time"

	"github.com/rcware/crsf.go/pkg/crsf"
	"github.com/rcware/crsf.go/pkg/transport"
)

// Channel index assignments, AETR order plus auxiliary channels.
const (
	ChannelRoll = iota
	ChannelPitch
	ChannelThrottle
	ChannelYaw
	ChannelAux1
	ChannelAux2
	ChannelAux3
	ChannelAux4
	ChannelAux5
	ChannelAux6
	ChannelAux7
	ChannelAux8
	ChannelAux9
	ChannelAux10
	ChannelAux11
	ChannelAux12
)

// ChannelInitPolicy selects which channels Begin forces to the protocol
// minimum so the craft starts disarmed with the throttle down.
type ChannelInitPolicy int

const (
	// InitNeither centers every channel.
	InitNeither ChannelInitPolicy = iota
	// InitArm forces the arm channel to minimum.
	InitArm
	// InitThrottle forces the throttle channel to minimum.
	InitThrottle
	// InitBoth forces both the arm and throttle channels to minimum.
	InitBoth
)

// Config carries the feature switches and channel assignments for a
// Controller. The zero value is not usable; start from NewConfig.
type Config struct {
	// BaudRate for the serial link.
	BaudRate int
	// PollInterval paces the convenience Run loop.
	PollInterval time.Duration

	// RcEnabled turns on channel state tracking and the RC channels
	// callback.
	RcEnabled bool
	// InitializeChannels pre-populates the channel array in Begin.
	InitializeChannels bool
	// InitPolicy selects the channels forced to minimum on Begin.
	InitPolicy ChannelInitPolicy
	// ArmChannel is the channel index the arm switch lives on.
	ArmChannel int
	// ThrottleChannel is the throttle channel index.
	ThrottleChannel int

	// LinkStatisticsEnabled turns on link statistics tracking and its
	// callback.
	LinkStatisticsEnabled bool
	// TelemetryEnabled turns on the telemetry engine.
	TelemetryEnabled bool
	// FlightModesEnabled sizes and enables the flight-mode table.
	FlightModesEnabled bool
	// FlightModeCount is the capacity of the flight-mode table.
	FlightModeCount int

	// FrameTimeOverhead is the failsafe budget in maximum-size frame
	// times passed to the decoder.
	FrameTimeOverhead int
}

var defaultConfig = Config{
	BaudRate:              crsf.BaudRate,
	PollInterval:          2 * time.Millisecond,
	RcEnabled:             true,
	InitializeChannels:    true,
	InitPolicy:            InitBoth,
	ArmChannel:            ChannelAux1,
	ThrottleChannel:       ChannelThrottle,
	LinkStatisticsEnabled: true,
	TelemetryEnabled:      true,
	FlightModesEnabled:    true,
	FlightModeCount:       int(flightModeIDCount),
	FrameTimeOverhead:     10,
}

// NewConfig creates a config with defaults: all features enabled,
// standard CRSF baud rate, arm on aux1 and throttle on channel 3.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController(port transport.Port) *Controller {
	return New(c, port)
}
