// Package monitor republishes receiver state over MQTT for
// ground-station tooling.
package monitor

import (
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/rcware/crsf.go/pkg/crsf"
	"github.com/rcware/crsf.go/pkg/receiver"
)

// Topics published under the queue's topic prefix.
const (
	TopicChannels = "channels"
	TopicLink     = "link"
)

// ChannelsPayload is the JSON shape published on TopicChannels.
type ChannelsPayload struct {
	Channels [crsf.ChannelCount]uint16 `json:"channels"`
	Us       [crsf.ChannelCount]uint16 `json:"us"`
	Valid    bool                      `json:"valid"`
	Failsafe bool                      `json:"failsafe"`
}

// LinkPayload is the JSON shape published on TopicLink.
type LinkPayload struct {
	RSSI      int    `json:"rssi_dbm"`
	LQ        uint8  `json:"lq_pct"`
	SNR       int8   `json:"snr_db"`
	RFMode    uint8  `json:"rf_mode"`
	TXPowerMw uint16 `json:"tx_power_mw"`
}

// Publisher attaches to a receiver.Controller and republishes its
// callbacks as JSON over MQTT. Channel snapshots are rate limited;
// link statistics go out as they arrive.
type Publisher struct {
	// Interval rate-limits channel snapshot publishes.
	Interval time.Duration

	queue       *Queue
	lastChannel time.Time
}

// NewPublisher creates a connected publisher for the broker URL, e.g.
// "mqtt://localhost:1883/crsf/".
func NewPublisher(brokerURL string) (*Publisher, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.Connect(); err != nil {
		return nil, err
	}
	return &Publisher{Interval: 100 * time.Millisecond, queue: q}, nil
}

// Attach registers the publisher on the controller's RC channels and
// link statistics callbacks. Registration is single-slot on the
// controller, so Attach displaces any previously registered callbacks.
func (p *Publisher) Attach(ctl *receiver.Controller) {
	ctl.SetRcChannelsCallback(p.publishChannels)
	ctl.SetLinkStatisticsCallback(p.publishLink)
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	return p.queue.Close()
}

func (p *Publisher) publishChannels(rc *receiver.RcChannels) {
	now := time.Now()
	if now.Sub(p.lastChannel) < p.Interval {
		return
	}
	p.lastChannel = now
	payload := ChannelsPayload{
		Channels: rc.Value,
		Valid:    rc.Valid,
		Failsafe: rc.Failsafe,
	}
	for i, v := range rc.Value {
		payload.Us[i] = receiver.RcToUs(v)
	}
	p.pubJSON(TopicChannels, &payload)
}

func (p *Publisher) publishLink(stats crsf.LinkStatistics) {
	p.pubJSON(TopicLink, &LinkPayload{
		RSSI:      stats.RSSI(),
		LQ:        stats.UplinkLQ,
		SNR:       stats.UplinkSNR,
		RFMode:    stats.RFMode,
		TXPowerMw: stats.TXPowerMilliwatts(),
	})
}

func (p *Publisher) pubJSON(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("monitor: marshal %s: %v", topic, err)
		return
	}
	p.queue.Pub(topic, payload)
}
