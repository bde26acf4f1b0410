// Package telemetry schedules and encodes CRSF telemetry frames.
package telemetry

import (
	"io"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default spacing between telemetry frames.
// Telemetry shares the wire with inbound RC frames, so frames are
// time-sliced rather than sent back to back.
const DefaultInterval = 100 * time.Millisecond

// sensor identifies one schedulable telemetry frame.
type sensor int

const (
	sensorAttitude sensor = iota
	sensorBaroAltitude
	sensorVario
	sensorBattery
	sensorFlightMode
	sensorGPS
	sensorCount
)

type attitudeData struct {
	roll, pitch, yaw int16 // decidegrees
}

type baroData struct {
	altitude uint16 // decimetres
	vario    int16  // cm/s
}

type batteryData struct {
	voltage float32 // volts
	current float32 // amperes
	fuel    uint32  // mAh drawn
	percent uint8
}

type flightModeData struct {
	mode  string
	armed bool
}

type gpsData struct {
	latitude     float32 // degrees
	longitude    float32 // degrees
	altitude     float32 // metres
	speed        float32 // km/h
	groundCourse float32 // degrees
	satellites   uint8
}

// Engine holds the latest sensor values and round-robins them onto the
// wire. A sensor joins the schedule the first time its setter is
// called. Engine is not safe for concurrent use.
type Engine struct {
	// Now provides the scheduler clock. Defaults to time.Now.
	Now func() time.Time
	// Interval is the minimum spacing between frames. Defaults to
	// DefaultInterval.
	Interval time.Duration

	attitude   attitudeData
	baro       baroData
	battery    batteryData
	flightMode flightModeData
	gps        gpsData

	armed    [sensorCount]bool
	next     sensor
	lastSend time.Time
}

// NewEngine creates an Engine with default scheduling.
func NewEngine() *Engine {
	return &Engine{Now: time.Now, Interval: DefaultInterval}
}

// Init prepares the engine for scheduling.
func (e *Engine) Init() error {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Interval <= 0 {
		e.Interval = DefaultInterval
	}
	e.lastSend = time.Time{}
	return nil
}

// Shutdown drops all scheduled sensors.
func (e *Engine) Shutdown() {
	e.armed = [sensorCount]bool{}
}

// Update reports whether a send window has arrived: at least one sensor
// is scheduled and the interval since the last send has elapsed.
func (e *Engine) Update() bool {
	any := false
	for _, a := range e.armed {
		if a {
			any = true
			break
		}
	}
	if !any {
		return false
	}
	return e.Now().Sub(e.lastSend) >= e.Interval
}

// Send encodes the next scheduled sensor frame and writes it to w.
func (e *Engine) Send(w io.Writer) error {
	s, ok := e.pick()
	if !ok {
		return nil
	}
	var frame []byte
	switch s {
	case sensorAttitude:
		frame = encodeAttitude(&e.attitude)
	case sensorBaroAltitude:
		frame = encodeBaroAltitude(&e.baro)
	case sensorVario:
		frame = encodeVario(e.baro.vario)
	case sensorBattery:
		frame = encodeBattery(&e.battery)
	case sensorFlightMode:
		frame = encodeFlightMode(&e.flightMode)
	case sensorGPS:
		frame = encodeGPS(&e.gps)
	}
	e.lastSend = e.Now()
	if _, err := w.Write(frame); err != nil {
		glog.V(1).Infof("telemetry: send failed: %v", err)
		return err
	}
	return nil
}

// pick finds the next scheduled sensor at or after the round-robin
// cursor and advances the cursor past it.
func (e *Engine) pick() (sensor, bool) {
	for i := sensor(0); i < sensorCount; i++ {
		s := (e.next + i) % sensorCount
		if e.armed[s] {
			e.next = (s + 1) % sensorCount
			return s, true
		}
	}
	return 0, false
}

// SetAttitude stores attitude in decidegrees.
func (e *Engine) SetAttitude(roll, pitch, yaw int16) {
	e.attitude = attitudeData{roll: roll, pitch: pitch, yaw: yaw}
	e.armed[sensorAttitude] = true
}

// SetBaroAltitude stores barometric altitude in decimetres and vertical
// speed in cm/s. It schedules both the baro altitude and vario frames.
func (e *Engine) SetBaroAltitude(altitude uint16, vario int16) {
	e.baro = baroData{altitude: altitude, vario: vario}
	e.armed[sensorBaroAltitude] = true
	e.armed[sensorVario] = true
}

// SetBattery stores battery voltage (V), current (A), consumed capacity
// (mAh) and remaining percentage.
func (e *Engine) SetBattery(voltage, current float32, fuel uint32, percent uint8) {
	e.battery = batteryData{voltage: voltage, current: current, fuel: fuel, percent: percent}
	e.armed[sensorBattery] = true
}

// SetFlightMode stores the flight mode label and armed state.
func (e *Engine) SetFlightMode(mode string, armed bool) {
	e.flightMode = flightModeData{mode: mode, armed: armed}
	e.armed[sensorFlightMode] = true
}

// SetGPS stores the GPS fix: latitude and longitude in degrees,
// altitude in metres, speed in km/h, ground course in degrees.
func (e *Engine) SetGPS(latitude, longitude, altitude, speed, groundCourse float32, satellites uint8) {
	e.gps = gpsData{
		latitude:     latitude,
		longitude:    longitude,
		altitude:     altitude,
		speed:        speed,
		groundCourse: groundCourse,
		satellites:   satellites,
	}
	e.armed[sensorGPS] = true
}
