package telemetry

import (
	"github.com/rcware/crsf.go/pkg/crsf"
)

// Telemetry frames share the CRSF frame envelope: destination, length,
// type, payload, CRC8 over type and payload. All multi-byte payload
// fields are big-endian.

func appendFrame(frameType byte, payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+4)
	buf = append(buf, crsf.AddrFlightController, byte(len(payload)+2), frameType)
	buf = append(buf, payload...)
	return append(buf, crsf.CRC8(buf[2:]))
}

func putU16(p []byte, v uint16) {
	p[0], p[1] = byte(v>>8), byte(v)
}

func putI16(p []byte, v int16) {
	putU16(p, uint16(v))
}

func putU24(p []byte, v uint32) {
	p[0], p[1], p[2] = byte(v>>16), byte(v>>8), byte(v)
}

func putI32(p []byte, v int32) {
	p[0], p[1], p[2], p[3] = byte(uint32(v)>>24), byte(uint32(v)>>16), byte(uint32(v)>>8), byte(v)
}

// GPS frame: latitude and longitude in degrees x 1e7, ground speed in
// km/h x 10, ground course in degrees x 100, altitude in metres with a
// 1000m offset, satellite count.
func encodeGPS(d *gpsData) []byte {
	p := make([]byte, 15)
	putI32(p[0:], int32(d.latitude*1e7))
	putI32(p[4:], int32(d.longitude*1e7))
	putU16(p[8:], uint16(d.speed*10))
	putU16(p[10:], uint16(d.groundCourse*100))
	putU16(p[12:], uint16(d.altitude+1000))
	p[14] = d.satellites
	return appendFrame(crsf.FrameTypeGPS, p)
}

// Vario frame: vertical speed in cm/s.
func encodeVario(vario int16) []byte {
	p := make([]byte, 2)
	putI16(p, vario)
	return appendFrame(crsf.FrameTypeVario, p)
}

// Battery frame: voltage in dV, current in dA, capacity drawn in mAh,
// remaining percentage. Deci-unit fields round to nearest so 16.8V
// reads back as 168dV, not 167.
func encodeBattery(d *batteryData) []byte {
	p := make([]byte, 8)
	putU16(p[0:], uint16(d.voltage*10+0.5))
	putU16(p[2:], uint16(d.current*10+0.5))
	putU24(p[4:], d.fuel)
	p[7] = d.percent
	return appendFrame(crsf.FrameTypeBattery, p)
}

// Baro altitude frame: altitude in decimetres with a 10000dm offset,
// vertical speed in cm/s.
func encodeBaroAltitude(d *baroData) []byte {
	p := make([]byte, 4)
	putU16(p[0:], d.altitude+10000)
	putI16(p[2:], d.vario)
	return appendFrame(crsf.FrameTypeBaroAltitude, p)
}

// Attitude frame: pitch, roll and yaw in radians x 10000. Setters take
// decidegrees, converted here.
func encodeAttitude(d *attitudeData) []byte {
	const deciDegToRad10k = 17.453293 // 0.1 deg in rad x 10000
	p := make([]byte, 6)
	putI16(p[0:], int16(float32(d.pitch)*deciDegToRad10k))
	putI16(p[2:], int16(float32(d.roll)*deciDegToRad10k))
	putI16(p[4:], int16(float32(d.yaw)*deciDegToRad10k))
	return appendFrame(crsf.FrameTypeAttitude, p)
}

// Flight mode frame: the mode label as a null-terminated string, with a
// "*" marker appended while disarmed.
func encodeFlightMode(d *flightModeData) []byte {
	label := d.mode
	if !d.armed {
		label += "*"
	}
	p := append([]byte(label), 0)
	return appendFrame(crsf.FrameTypeFlightMode, p)
}
