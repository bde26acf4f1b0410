// crsfmon opens a CRSF receiver on a serial port and prints the live
// channel and link state, optionally republishing it over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v2"

	"github.com/rcware/crsf.go/pkg/crsf"
	"github.com/rcware/crsf.go/pkg/monitor"
	"github.com/rcware/crsf.go/pkg/receiver"
	"github.com/rcware/crsf.go/pkg/transport"
)

type fileConfig struct {
	Device      string             `yaml:"device"`
	Baud        int                `yaml:"baud"`
	MQTTURL     string             `yaml:"mqtt_url"`
	Raw         bool               `yaml:"raw"`
	FlightModes []flightModeConfig `yaml:"flight_modes"`
}

// flightModeConfig is one row of the flight-mode table in the config
// file: mode id is active while channel is inside [min, max].
type flightModeConfig struct {
	ID      int    `yaml:"id"`
	Channel int    `yaml:"channel"`
	Min     uint16 `yaml:"min"`
	Max     uint16 `yaml:"max"`
}

var (
	device      = "/dev/ttyUSB0"
	baud        = crsf.BaudRate
	mqttURL     = ""
	configPath  = ""
	raw         = false
	flightModes []flightModeConfig
)

func init() {
	if val := os.Getenv("CRSF_DEVICE"); val != "" {
		device = val
	}
	if val := os.Getenv("CRSF_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&device, "device", device, "Serial device of the receiver.")
	flag.IntVar(&baud, "baud", baud, "Link baud rate.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL for republishing, empty to disable.")
	flag.StringVar(&configPath, "config", configPath, "YAML config file.")
	flag.BoolVar(&raw, "raw", raw, "Print protocol-native channel values instead of microseconds.")
}

// applyConfigFile loads the YAML file, letting explicitly passed flags
// win over file values.
func applyConfigFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if fc.Device != "" && !set["device"] {
		device = fc.Device
	}
	if fc.Baud != 0 && !set["baud"] {
		baud = fc.Baud
	}
	if fc.MQTTURL != "" && !set["mqtt"] {
		mqttURL = fc.MQTTURL
	}
	if fc.Raw && !set["raw"] {
		raw = true
	}
	flightModes = fc.FlightModes
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if configPath != "" {
		if err := applyConfigFile(configPath); err != nil {
			log.Fatalln(err)
		}
	}

	conf := receiver.NewConfig()
	conf.BaudRate = baud
	ctl := conf.NewController(transport.NewNativePort(device))
	if err := ctl.Begin(); err != nil {
		log.Fatalln(err)
	}
	defer ctl.End()

	for _, fm := range flightModes {
		if !ctl.SetFlightMode(receiver.FlightModeID(fm.ID), fm.Channel, fm.Min, fm.Max) {
			log.Fatalf("flight mode %d: id or channel out of range", fm.ID)
		}
	}

	printer := newPrinter(raw)
	ctl.SetRcChannelsCallback(printer.channels)
	ctl.SetLinkStatisticsCallback(printer.link)
	ctl.SetFlightModeCallback(printer.flightMode)

	if mqttURL != "" {
		pub, err := monitor.NewPublisher(mqttURL)
		if err != nil {
			log.Fatalln(err)
		}
		defer pub.Close()
		// MQTT takes over the channel/link callbacks; the terminal
		// keeps flight-mode output.
		pub.Attach(ctl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Printf("listening on %s at %d baud", device, baud)
	if err := ctl.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// printer renders callback state to the terminal, rate limited so a
// 500Hz link does not flood the output.
type printer struct {
	raw      bool
	last     time.Time
	lastLink time.Time
	mode     receiver.FlightModeID
	hasMode  bool
	failsafe *color.Color
	good     *color.Color
	dim      *color.Color
}

func newPrinter(raw bool) *printer {
	return &printer{
		raw:      raw,
		failsafe: color.New(color.FgRed, color.Bold),
		good:     color.New(color.FgGreen),
		dim:      color.New(color.Faint),
	}
}

func (p *printer) channels(rc *receiver.RcChannels) {
	now := time.Now()
	if now.Sub(p.last) < 100*time.Millisecond {
		return
	}
	p.last = now
	if !rc.Valid {
		p.dim.Println("waiting for frames ...")
		return
	}
	if rc.Failsafe {
		p.failsafe.Print("FAILSAFE ")
	}
	for i, v := range rc.Value {
		if !p.raw {
			v = receiver.RcToUs(v)
		}
		fmt.Printf("%2d:%4d ", i+1, v)
	}
	fmt.Println()
}

func (p *printer) link(stats crsf.LinkStatistics) {
	now := time.Now()
	if now.Sub(p.lastLink) < time.Second {
		return
	}
	p.lastLink = now
	p.good.Printf("link: rssi %ddBm lq %d%% snr %ddB tx %dmW\n",
		stats.RSSI(), stats.UplinkLQ, stats.UplinkSNR, stats.TXPowerMilliwatts())
}

func (p *printer) flightMode(id receiver.FlightModeID) {
	if p.hasMode && id == p.mode {
		return
	}
	p.mode, p.hasMode = id, true
	p.dim.Printf("flight mode: %s\n", id.Label())
}
