// crsfsh is an interactive shell for poking at a CRSF receiver:
// inspecting channels, configuring flight modes and feeding telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/rcware/crsf.go/pkg/crsf"
	"github.com/rcware/crsf.go/pkg/receiver"
	"github.com/rcware/crsf.go/pkg/transport"
)

const (
	sessionKey      = "$session"
	idlePrompt      = "[closed] > "
	defaultPollHz   = 250
	flightModeUnset = receiver.FlightModeID(-1)
)

// session owns a controller and the goroutine polling it. The shell
// thread and the poll goroutine share the controller under mu; the
// controller itself stays single-threaded.
type session struct {
	mu     sync.Mutex
	ctl    *receiver.Controller
	cancel func()
	done   chan struct{}
	mode   receiver.FlightModeID
}

func sessionFrom(c *ishell.Context) *session {
	return c.Get(sessionKey).(*session)
}

// mustBeOpen wraps command funcs that need an open receiver.
func mustBeOpen(fn func(c *ishell.Context, s *session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := sessionFrom(c)
		if s.ctl == nil {
			c.Err(fmt.Errorf("not open"))
			return
		}
		fn(c, s)
	}
}

func (s *session) open(device string, baud int) error {
	conf := receiver.NewConfig()
	if baud > 0 {
		conf.BaudRate = baud
	}
	ctl := conf.NewController(transport.NewNativePort(device))
	if err := ctl.Begin(); err != nil {
		return err
	}
	ctl.SetFlightModeCallback(func(id receiver.FlightModeID) {
		s.mode = id
	})
	s.ctl, s.mode = ctl, flightModeUnset

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel, s.done = cancel, make(chan struct{})
	go s.poll(ctx)
	return nil
}

// poll drives the controller from a background goroutine so shell
// commands see live state. Every touch of the controller, here and in
// the commands, happens under mu.
func (s *session) poll(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(time.Second / defaultPollHz)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.ctl.ProcessFrames()
			s.ctl.HandleFlightMode()
			s.mu.Unlock()
		}
	}
}

func (s *session) close() {
	if s.ctl == nil {
		return
	}
	s.cancel()
	<-s.done
	s.mu.Lock()
	s.ctl.End()
	s.ctl = nil
	s.mu.Unlock()
}

var commands = []*ishell.Cmd{
	{
		Name: "open",
		Help: "DEVICE [BAUD]",
		Func: func(c *ishell.Context) {
			s := sessionFrom(c)
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("device expected"))
				return
			}
			baud := 0
			if len(c.Args) > 1 {
				var err error
				if baud, err = strconv.Atoi(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			s.close()
			if err := s.open(c.Args[0], baud); err != nil {
				c.Err(err)
				return
			}
			shellOf(c).SetPrompt(fmt.Sprintf("[%s] > ", c.Args[0]))
		},
	},
	{
		Name: "close",
		Func: func(c *ishell.Context) {
			sessionFrom(c).close()
			shellOf(c).SetPrompt(idlePrompt)
		},
	},
	{
		Name:    "channels",
		Aliases: []string{"ch"},
		Help:    "[raw]",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			raw := len(c.Args) > 0 && c.Args[0] == "raw"
			s.mu.Lock()
			defer s.mu.Unlock()
			if fs := s.ctl.Failsafe(); fs {
				c.Println("FAILSAFE")
			}
			for i := 0; i < crsf.ChannelCount; i++ {
				c.Printf("%2d:%4d ", i+1, s.ctl.ReadRcChannel(i, raw))
			}
			c.Println()
		}),
	},
	{
		Name: "link",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			s.mu.Lock()
			stats := s.ctl.LinkStatistics()
			s.mu.Unlock()
			c.Printf("rssi %ddBm lq %d%% snr %ddB tx %dmW rf-mode %d\n",
				stats.RSSI(), stats.UplinkLQ, stats.UplinkSNR,
				stats.TXPowerMilliwatts(), stats.RFMode)
		}),
	},
	{
		Name: "fm.set",
		Help: "ID CHANNEL MIN MAX",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			args, err := intArgs(c.Args, 4)
			if err != nil {
				c.Err(err)
				return
			}
			s.mu.Lock()
			ok := s.ctl.SetFlightMode(receiver.FlightModeID(args[0]),
				args[1], uint16(args[2]), uint16(args[3]))
			s.mu.Unlock()
			if !ok {
				c.Err(fmt.Errorf("mode id or channel out of range"))
				return
			}
			c.Println("OK")
		}),
	},
	{
		Name: "fm",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			s.mu.Lock()
			mode := s.mode
			s.mu.Unlock()
			if mode == flightModeUnset {
				c.Println("no mode matched yet")
				return
			}
			c.Printf("%d (%s)\n", mode, mode.Label())
		}),
	},
	{
		Name: "telem.attitude",
		Help: "ROLL PITCH YAW (decidegrees)",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			args, err := intArgs(c.Args, 3)
			if err != nil {
				c.Err(err)
				return
			}
			s.mu.Lock()
			s.ctl.TelemetryWriteAttitude(int16(args[0]), int16(args[1]), int16(args[2]))
			s.mu.Unlock()
		}),
	},
	{
		Name: "telem.baro",
		Help: "ALT_DM VARIO_CMS",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			args, err := intArgs(c.Args, 2)
			if err != nil {
				c.Err(err)
				return
			}
			s.mu.Lock()
			s.ctl.TelemetryWriteBaroAltitude(uint16(args[0]), int16(args[1]))
			s.mu.Unlock()
		}),
	},
	{
		Name: "telem.battery",
		Help: "VOLTS AMPS FUEL_MAH PERCENT",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			if len(c.Args) != 4 {
				c.Err(fmt.Errorf("4 arguments expected"))
				return
			}
			volts, err1 := strconv.ParseFloat(c.Args[0], 32)
			amps, err2 := strconv.ParseFloat(c.Args[1], 32)
			rest, err3 := intArgs(c.Args[2:], 2)
			for _, err := range []error{err1, err2, err3} {
				if err != nil {
					c.Err(err)
					return
				}
			}
			s.mu.Lock()
			s.ctl.TelemetryWriteBattery(float32(volts), float32(amps),
				uint32(rest[0]), uint8(rest[1]))
			s.mu.Unlock()
		}),
	},
	{
		Name: "telem.gps",
		Help: "LAT LON ALT_M SPEED_KMH COURSE SATS",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			if len(c.Args) != 6 {
				c.Err(fmt.Errorf("6 arguments expected"))
				return
			}
			vals := make([]float64, 5)
			for i := range vals {
				var err error
				if vals[i], err = strconv.ParseFloat(c.Args[i], 32); err != nil {
					c.Err(err)
					return
				}
			}
			sats, err := strconv.Atoi(c.Args[5])
			if err != nil {
				c.Err(err)
				return
			}
			s.mu.Lock()
			s.ctl.TelemetryWriteGPS(float32(vals[0]), float32(vals[1]),
				float32(vals[2]), float32(vals[3]), float32(vals[4]), uint8(sats))
			s.mu.Unlock()
		}),
	},
	{
		Name: "telem.mode",
		Help: "LABEL [armed]",
		Func: mustBeOpen(func(c *ishell.Context, s *session) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("label expected"))
				return
			}
			armed := len(c.Args) > 1 && c.Args[1] == "armed"
			s.mu.Lock()
			s.ctl.TelemetryWriteCustomFlightMode(c.Args[0], armed)
			s.mu.Unlock()
		}),
	},
}

func shellOf(c *ishell.Context) *ishell.Shell {
	return c.Get("$shell").(*ishell.Shell)
}

func intArgs(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%d arguments expected", n)
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func main() {
	flag.Parse()

	shell := ishell.New()
	s := &session{mode: flightModeUnset}
	shell.Set(sessionKey, s)
	shell.Set("$shell", shell)
	shell.SetPrompt(idlePrompt)
	for _, cmd := range commands {
		shell.AddCmd(cmd)
	}
	defer s.close()

	if args := flag.Args(); len(args) > 0 {
		if err := shell.Process(args...); err != nil {
			fmt.Println(err)
		}
		return
	}
	shell.Run()
}
