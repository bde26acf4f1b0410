package receiver

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcware/crsf.go/pkg/crsf"
	"github.com/rcware/crsf.go/pkg/transport"
)

// frameMark is the byte that makes fakeDecoder report a completed
// frame.
const frameMark = 0xF0

var errStub = errors.New("stub failure")

// fakeDecoder scripts the decode engine: every frameMark byte completes
// a frame.
type fakeDecoder struct {
	initErr   error
	inits     int
	shutdowns int
	fed       []byte

	channels  [crsf.ChannelCount]uint16
	hasRcData bool
	failsafe  bool
	stats     crsf.LinkStatistics

	baud, overhead int
}

func (d *fakeDecoder) Init() error {
	d.inits++
	return d.initErr
}

func (d *fakeDecoder) Shutdown() {
	d.shutdowns++
}

func (d *fakeDecoder) ConfigureTiming(baudRate, overhead int) {
	d.baud, d.overhead = baudRate, overhead
}

func (d *fakeDecoder) Feed(b byte) bool {
	d.fed = append(d.fed, b)
	if b == frameMark {
		d.hasRcData = true
		return true
	}
	return false
}

func (d *fakeDecoder) Channels(out *[crsf.ChannelCount]uint16) {
	*out = d.channels
}

func (d *fakeDecoder) HasRcData() bool {
	return d.hasRcData
}

func (d *fakeDecoder) Failsafe() bool {
	return d.failsafe
}

func (d *fakeDecoder) LinkStatistics() crsf.LinkStatistics {
	return d.stats
}

// fakeTelemetry scripts the send window.
type fakeTelemetry struct {
	initErr   error
	inits     int
	shutdowns int
	windows   []bool
	sends     int
}

func (f *fakeTelemetry) Init() error {
	f.inits++
	return f.initErr
}

func (f *fakeTelemetry) Shutdown() {
	f.shutdowns++
}

func (f *fakeTelemetry) Update() bool {
	if len(f.windows) == 0 {
		return false
	}
	w := f.windows[0]
	f.windows = f.windows[1:]
	return w
}

func (f *fakeTelemetry) Send(w io.Writer) error {
	f.sends++
	_, err := w.Write([]byte{0xEA})
	return err
}

func (f *fakeTelemetry) SetAttitude(roll, pitch, yaw int16)                  {}
func (f *fakeTelemetry) SetBaroAltitude(altitude uint16, vario int16)        {}
func (f *fakeTelemetry) SetBattery(v, a float32, fuel uint32, percent uint8) {}
func (f *fakeTelemetry) SetFlightMode(mode string, armed bool)               {}
func (f *fakeTelemetry) SetGPS(lat, lon, alt, spd, crs float32, sats uint8)  {}

// faultyPort injects failures into the teardown path.
type faultyPort struct {
	*transport.Loopback
	flushErr error
	closeErr error
}

func (p *faultyPort) Flush() error {
	if p.flushErr != nil {
		return p.flushErr
	}
	return p.Loopback.Flush()
}

func (p *faultyPort) Close() error {
	if p.closeErr != nil {
		return p.closeErr
	}
	return p.Loopback.Close()
}

type testRig struct {
	ctl   *Controller
	port  *transport.Loopback
	dec   *fakeDecoder
	telem *fakeTelemetry
}

func newTestRig(t *testing.T, conf *Config) *testRig {
	t.Helper()
	if conf == nil {
		conf = NewConfig()
	}
	rig := &testRig{
		port:  transport.NewLoopback(),
		dec:   &fakeDecoder{},
		telem: &fakeTelemetry{},
	}
	rig.ctl = New(conf, rig.port)
	rig.ctl.Decoder = rig.dec
	rig.ctl.Telemetry = rig.telem
	rig.ctl.CompatCheck = func() error { return nil }
	return rig
}

func TestBeginInitializesChannels(t *testing.T) {
	testCases := []struct {
		name     string
		policy   ChannelInitPolicy
		atMin    []int
	}{
		{name: "neither", policy: InitNeither},
		{name: "arm", policy: InitArm, atMin: []int{ChannelAux1}},
		{name: "throttle", policy: InitThrottle, atMin: []int{ChannelThrottle}},
		{name: "both", policy: InitBoth, atMin: []int{ChannelAux1, ChannelThrottle}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.InitPolicy = tc.policy
			rig := newTestRig(t, conf)
			require.NoError(t, rig.ctl.Begin())

			forced := map[int]bool{}
			for _, ch := range tc.atMin {
				forced[ch] = true
			}
			for i, v := range rig.ctl.rc.Value {
				if forced[i] {
					require.Equal(t, crsf.ChannelMin, v, "channel %d", i)
				} else {
					require.Equal(t, crsf.ChannelCenter, v, "channel %d", i)
				}
			}
		})
	}
}

func TestBeginWiresEngines(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.port.Feed(1, 2, 3) // stale pre-init bytes

	require.NoError(t, rig.ctl.Begin())
	require.Equal(t, 1, rig.dec.inits)
	require.Equal(t, crsf.BaudRate, rig.dec.baud)
	require.Equal(t, 10, rig.dec.overhead)
	require.Equal(t, crsf.BaudRate, rig.port.OpenedAt)
	require.Equal(t, 1, rig.telem.inits)
	// Stale input was discarded.
	require.Equal(t, 0, rig.port.BytesAvailable())
}

func TestBeginFailsOnIncompatiblePlatform(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.ctl.CompatCheck = func() error { return errStub }
	require.Error(t, rig.ctl.Begin())
	// The transport was never opened.
	require.Equal(t, 0, rig.port.OpenedAt)
	require.Equal(t, 0, rig.dec.inits)
}

func TestBeginFailsOnDecoderInit(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.dec.initErr = errStub
	require.Error(t, rig.ctl.Begin())
	require.Equal(t, 0, rig.port.OpenedAt)
}

func TestBeginFailsOnTelemetryInit(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.telem.initErr = errStub
	require.Error(t, rig.ctl.Begin())
}

func TestProcessFramesPublishesOncePerPoll(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	rig.dec.channels[0] = 1500
	rig.dec.stats = crsf.LinkStatistics{UplinkLQ: 95}

	var rcCalls int
	var lastRc RcChannels
	rig.ctl.SetRcChannelsCallback(func(rc *RcChannels) {
		rcCalls++
		lastRc = *rc
	})
	linkCalls := 0
	// The second frame's bytes arrive while the first is being
	// handled, after the backlog drain.
	rig.ctl.SetLinkStatisticsCallback(func(stats crsf.LinkStatistics) {
		if linkCalls++; linkCalls == 1 {
			rig.port.Feed(0x01, frameMark)
		}
		require.Equal(t, uint8(95), stats.UplinkLQ)
	})

	rig.port.Feed(0x01, 0x02, frameMark, 0x99, 0x98)
	rig.ctl.ProcessFrames()

	// Two frames completed: link statistics twice, RC publish once.
	require.Equal(t, 2, linkCalls)
	require.Equal(t, 1, rcCalls)
	require.True(t, lastRc.Valid)
	require.Equal(t, uint16(1500), lastRc.Value[0])
	// The backlog after the first frame was dropped, not decoded.
	require.NotContains(t, rig.dec.fed, byte(0x99))
}

func TestProcessFramesPublishesWithoutFrames(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	calls := 0
	rig.ctl.SetRcChannelsCallback(func(rc *RcChannels) {
		calls++
		require.False(t, rc.Valid)
	})
	rig.ctl.ProcessFrames()
	require.Equal(t, 1, calls)
}

func TestProcessFramesValidSticks(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	rig.port.Feed(frameMark)
	rig.ctl.ProcessFrames()
	require.True(t, rig.ctl.rc.Valid)

	// Valid stays true on later polls with no data.
	rig.ctl.ProcessFrames()
	require.True(t, rig.ctl.rc.Valid)
}

func TestProcessFramesFailsafeTracksDecoder(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	rig.dec.failsafe = true
	rig.ctl.ProcessFrames()
	require.True(t, rig.ctl.Failsafe())

	rig.dec.failsafe = false
	rig.ctl.ProcessFrames()
	require.False(t, rig.ctl.Failsafe())
}

func TestProcessFramesTelemetryWindow(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	// First frame: window closed. Second frame: window open.
	rig.telem.windows = []bool{false, true}

	rig.port.Feed(frameMark)
	rig.ctl.ProcessFrames()
	require.Equal(t, 0, rig.telem.sends)

	rig.port.Feed(frameMark)
	rig.ctl.ProcessFrames()
	require.Equal(t, 1, rig.telem.sends)
	require.Equal(t, []byte{0xEA}, rig.port.Sent)
}

func TestProcessFramesRespectsFeatureFlags(t *testing.T) {
	conf := NewConfig()
	conf.LinkStatisticsEnabled = false
	conf.RcEnabled = false
	conf.TelemetryEnabled = false
	rig := newTestRig(t, conf)
	require.NoError(t, rig.ctl.Begin())

	linkCalls, rcCalls := 0, 0
	rig.ctl.SetLinkStatisticsCallback(func(crsf.LinkStatistics) { linkCalls++ })
	rig.ctl.SetRcChannelsCallback(func(*RcChannels) { rcCalls++ })

	rig.port.Feed(frameMark)
	rig.ctl.ProcessFrames()
	require.Equal(t, 0, linkCalls)
	require.Equal(t, 0, rcCalls)
}

func TestEndIsIdempotent(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	require.NoError(t, rig.ctl.End())
	require.Equal(t, 1, rig.dec.shutdowns)
	require.Equal(t, 1, rig.telem.shutdowns)

	// A second End tears nothing down twice.
	require.NoError(t, rig.ctl.End())
	require.Equal(t, 1, rig.dec.shutdowns)
	require.Equal(t, 1, rig.telem.shutdowns)
}

func TestEndCollectsTeardownFailures(t *testing.T) {
	errFlush := errors.New("flush failed")
	errClose := errors.New("close failed")

	rig := newTestRig(t, nil)
	port := &faultyPort{Loopback: rig.port}
	rig.ctl = New(nil, port)
	rig.ctl.Decoder = rig.dec
	rig.ctl.Telemetry = rig.telem
	rig.ctl.CompatCheck = func() error { return nil }
	require.NoError(t, rig.ctl.Begin())

	port.flushErr, port.closeErr = errFlush, errClose
	err := rig.ctl.End()
	require.Error(t, err)

	// Both failures surface, and the close still happened after the
	// failed drain.
	var terr *TeardownError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, []error{errFlush, errClose}, terr.Steps)
	require.Contains(t, err.Error(), "flush failed")
	require.Contains(t, err.Error(), "close failed")

	// Engines were torn down despite the port failures.
	require.Equal(t, 1, rig.dec.shutdowns)
	require.Equal(t, 1, rig.telem.shutdowns)
}

func TestEndSingleFailurePassesThrough(t *testing.T) {
	rig := newTestRig(t, nil)
	port := &faultyPort{Loopback: rig.port}
	rig.ctl = New(nil, port)
	rig.ctl.Decoder = rig.dec
	rig.ctl.Telemetry = rig.telem
	rig.ctl.CompatCheck = func() error { return nil }
	require.NoError(t, rig.ctl.Begin())

	port.closeErr = errStub
	err := rig.ctl.End()
	require.ErrorIs(t, err, errStub)
	// A lone failure is not wrapped in a TeardownError.
	var terr *TeardownError
	require.False(t, errors.As(err, &terr))
}

func TestProcessFramesBeforeBegin(t *testing.T) {
	rig := newTestRig(t, nil)
	calls := 0
	rig.ctl.SetRcChannelsCallback(func(*RcChannels) { calls++ })
	rig.ctl.ProcessFrames() // no engines yet, must not panic
	require.Equal(t, 0, calls)
}

func TestTelemetryWritesForward(t *testing.T) {
	rig := newTestRig(t, nil)
	require.NoError(t, rig.ctl.Begin())

	// Pass-throughs must not panic and must respect the feature flag.
	rig.ctl.TelemetryWriteAttitude(10, -20, 30)
	rig.ctl.TelemetryWriteBaroAltitude(120, -15)
	rig.ctl.TelemetryWriteBattery(16.8, 12.3, 1500, 67)
	rig.ctl.TelemetryWriteFlightMode(FlightModeAngle)
	rig.ctl.TelemetryWriteCustomFlightMode("WAVE", true)
	rig.ctl.TelemetryWriteGPS(-33.8, 151.2, 12, 0, 0, 9)
}
