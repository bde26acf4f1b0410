package receiver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/rcware/crsf.go/pkg/compat"
	"github.com/rcware/crsf.go/pkg/crsf"
	"github.com/rcware/crsf.go/pkg/telemetry"
	"github.com/rcware/crsf.go/pkg/transport"
)

// FrameDecoder consumes the serial byte stream and exposes the decoded
// channel and link state. crsf.Decoder is the standard implementation.
type FrameDecoder interface {
	Init() error
	Shutdown()
	ConfigureTiming(baudRate, overhead int)
	// Feed consumes one byte and reports whether it completed a frame.
	Feed(b byte) bool
	Channels(out *[crsf.ChannelCount]uint16)
	HasRcData() bool
	Failsafe() bool
	LinkStatistics() crsf.LinkStatistics
}

// TelemetryEngine schedules and transmits outbound telemetry.
// telemetry.Engine is the standard implementation.
type TelemetryEngine interface {
	Init() error
	Shutdown()
	// Update reports whether a send window has arrived.
	Update() bool
	Send(w io.Writer) error

	SetAttitude(roll, pitch, yaw int16)
	SetBaroAltitude(altitude uint16, vario int16)
	SetBattery(voltage, current float32, fuel uint32, percent uint8)
	SetFlightMode(mode string, armed bool)
	SetGPS(latitude, longitude, altitude, speed, groundCourse float32, satellites uint8)
}

// Callback signatures. Registration is single-slot: the last registered
// callback wins. Callbacks run inline on the polling caller and must
// not re-enter the Controller or block.
type (
	// LinkStatisticsCallback receives link statistics after each
	// completed frame.
	LinkStatisticsCallback func(crsf.LinkStatistics)
	// RcChannelsCallback receives the channel snapshot once per poll.
	// The pointer is owned by the Controller and only valid for the
	// duration of the call.
	RcChannelsCallback func(*RcChannels)
	// FlightModeCallback receives the first matching flight mode.
	FlightModeCallback func(FlightModeID)
)

// Controller is the receiver-side orchestration layer of a CRSF link.
// Construct with New, then Begin, then poll ProcessFrames.
type Controller struct {
	// Decoder, Telemetry and CompatCheck may be set before Begin to
	// substitute the engines. Left nil, Begin installs the standard
	// crsf decoder, telemetry engine and platform check.
	Decoder     FrameDecoder
	Telemetry   TelemetryEngine
	CompatCheck func() error

	cfg  *Config
	port transport.Port

	decoder FrameDecoder
	telem   TelemetryEngine

	rc          RcChannels
	linkStats   crsf.LinkStatistics
	flightModes []flightModeEntry

	linkStatsCb  LinkStatisticsCallback
	rcCb         RcChannelsCallback
	flightModeCb FlightModeCallback
}

// New creates a Controller over the given transport. A nil cfg uses
// NewConfig defaults.
func New(cfg *Config, port transport.Port) *Controller {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := &Controller{cfg: cfg, port: port}
	if cfg.RcEnabled && cfg.FlightModesEnabled {
		c.flightModes = make([]flightModeEntry, cfg.FlightModeCount)
	}
	return c
}

// Begin initializes the channel state, verifies the platform, starts
// the decode and telemetry engines and opens the transport. A failed
// Begin leaves the Controller unusable; construct a fresh one before
// retrying.
func (c *Controller) Begin() error {
	if c.cfg.RcEnabled && c.cfg.InitializeChannels {
		c.initChannels()
	}

	check := c.CompatCheck
	if check == nil {
		check = compat.Check
	}
	if err := check(); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	c.decoder = c.Decoder
	if c.decoder == nil {
		c.decoder = crsf.NewDecoder()
	}
	if err := c.decoder.Init(); err != nil {
		return fmt.Errorf("receiver: decoder: %w", err)
	}
	c.decoder.ConfigureTiming(c.cfg.BaudRate, c.cfg.FrameTimeOverhead)

	if err := c.port.Open(c.cfg.BaudRate); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	if c.cfg.TelemetryEnabled {
		c.telem = c.Telemetry
		if c.telem == nil {
			c.telem = telemetry.NewEngine()
		}
		if err := c.telem.Init(); err != nil {
			return fmt.Errorf("receiver: telemetry: %w", err)
		}
	}

	// Discard whatever arrived before we were listening.
	c.drainPort()

	glog.V(1).Infof("receiver: begun at %d baud", c.cfg.BaudRate)
	return nil
}

// initChannels centers every channel, then forces the arm and throttle
// channels to minimum per the configured policy so the craft cannot
// start armed or spinning.
func (c *Controller) initChannels() {
	for i := range c.rc.Value {
		c.rc.Value[i] = crsf.ChannelCenter
	}
	switch c.cfg.InitPolicy {
	case InitArm:
		c.rc.Value[c.cfg.ArmChannel] = crsf.ChannelMin
	case InitThrottle:
		c.rc.Value[c.cfg.ThrottleChannel] = crsf.ChannelMin
	case InitBoth:
		c.rc.Value[c.cfg.ArmChannel] = crsf.ChannelMin
		c.rc.Value[c.cfg.ThrottleChannel] = crsf.ChannelMin
	}
}

// End drains the port, closes it and tears down the engines. Every
// step runs even after an earlier one fails; the failures come back as
// a TeardownError. Calling End again, or without a successful Begin,
// is a no-op.
func (c *Controller) End() error {
	var terr TeardownError
	terr.collect(c.drainPort())
	terr.collect(c.port.Close())
	if c.decoder != nil {
		c.decoder.Shutdown()
		c.decoder = nil
	}
	if c.telem != nil {
		c.telem.Shutdown()
		c.telem = nil
	}
	return terr.err()
}

// ProcessFrames drains all bytes currently buffered on the transport
// through the decoder. Each completed frame discards the remaining
// backlog (latency is bounded by dropping stale bytes, not by queueing
// every frame), publishes link statistics and gives telemetry its send
// window. After the drain the channel snapshot is re-published exactly
// once, whether or not any frame completed.
func (c *Controller) ProcessFrames() {
	if c.decoder == nil {
		return
	}
	for c.port.BytesAvailable() > 0 {
		b, err := c.port.ReadByte()
		if err != nil {
			break
		}
		if !c.decoder.Feed(b) {
			continue
		}
		c.drainPort()
		if c.cfg.LinkStatisticsEnabled {
			c.linkStats = c.decoder.LinkStatistics()
			if c.linkStatsCb != nil {
				c.linkStatsCb(c.linkStats)
			}
		}
		if c.cfg.TelemetryEnabled && c.telem.Update() {
			if err := c.telem.Send(c.port); err != nil {
				glog.V(1).Infof("receiver: telemetry send: %v", err)
			}
		}
	}

	if c.cfg.RcEnabled {
		c.rc.Failsafe = c.decoder.Failsafe()
		c.decoder.Channels(&c.rc.Value)
		if c.decoder.HasRcData() {
			c.rc.Valid = true
		}
		if c.rcCb != nil {
			c.rcCb(&c.rc)
		}
	}
}

// drainPort discards everything buffered on the transport.
func (c *Controller) drainPort() error {
	if err := c.port.Flush(); err != nil {
		return err
	}
	for c.port.BytesAvailable() > 0 {
		if _, err := c.port.ReadByte(); err != nil {
			return err
		}
	}
	return nil
}

// Run polls ProcessFrames on the configured interval until ctx is
// cancelled, evaluating the flight-mode table after each poll. It
// implements the Runnable shape for callers composing control loops.
func (c *Controller) Run(ctx context.Context) error {
	if c.decoder == nil {
		return ErrNotBegun
	}
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.ProcessFrames()
			if c.cfg.RcEnabled && c.cfg.FlightModesEnabled {
				c.HandleFlightMode()
			}
		}
	}
}

// LinkStatistics returns the statistics captured at the last completed
// frame.
func (c *Controller) LinkStatistics() crsf.LinkStatistics {
	return c.linkStats
}

// SetLinkStatisticsCallback registers the link-statistics callback,
// replacing any prior registration. A nil callback unregisters.
func (c *Controller) SetLinkStatisticsCallback(cb LinkStatisticsCallback) {
	c.linkStatsCb = cb
}

// SetRcChannelsCallback registers the RC channels callback, replacing
// any prior registration. A nil callback unregisters.
func (c *Controller) SetRcChannelsCallback(cb RcChannelsCallback) {
	c.rcCb = cb
}

// SetFlightModeCallback registers the flight-mode callback, replacing
// any prior registration. A nil callback unregisters.
func (c *Controller) SetFlightModeCallback(cb FlightModeCallback) {
	c.flightModeCb = cb
}

// TelemetryWriteAttitude forwards attitude in decidegrees.
func (c *Controller) TelemetryWriteAttitude(roll, pitch, yaw int16) {
	if c.telemetryReady() {
		c.telem.SetAttitude(roll, pitch, yaw)
	}
}

// TelemetryWriteBaroAltitude forwards barometric altitude in
// decimetres and vertical speed in cm/s.
func (c *Controller) TelemetryWriteBaroAltitude(altitude uint16, vario int16) {
	if c.telemetryReady() {
		c.telem.SetBaroAltitude(altitude, vario)
	}
}

// TelemetryWriteBattery forwards battery voltage (V), current (A),
// consumed capacity (mAh) and remaining percentage.
func (c *Controller) TelemetryWriteBattery(voltage, current float32, fuel uint32, percent uint8) {
	if c.telemetryReady() {
		c.telem.SetBattery(voltage, current, fuel, percent)
	}
}

// TelemetryWriteFlightMode forwards a built-in flight mode as its
// display label, with the armed flag derived from the mode.
func (c *Controller) TelemetryWriteFlightMode(id FlightModeID) {
	if c.telemetryReady() {
		c.telem.SetFlightMode(id.Label(), id.Armed())
	}
}

// TelemetryWriteCustomFlightMode forwards an arbitrary mode label.
func (c *Controller) TelemetryWriteCustomFlightMode(mode string, armed bool) {
	if c.telemetryReady() {
		c.telem.SetFlightMode(mode, armed)
	}
}

// TelemetryWriteGPS forwards a GPS fix: degrees latitude/longitude,
// altitude in metres, speed in km/h, ground course in degrees.
func (c *Controller) TelemetryWriteGPS(latitude, longitude, altitude, speed, groundCourse float32, satellites uint8) {
	if c.telemetryReady() {
		c.telem.SetGPS(latitude, longitude, altitude, speed, groundCourse, satellites)
	}
}

func (c *Controller) telemetryReady() bool {
	return c.cfg.TelemetryEnabled && c.telem != nil
}
