package monitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcware/crsf.go/pkg/crsf"
)

func TestClientOptionsFromURL(t *testing.T) {
	for _, c := range []struct {
		url      string
		broker   string
		prefix   string
		user     string
		pass     string
		clientID string
	}{
		{url: "mqtt://localhost:1883", broker: "tcp://localhost:1883"},
		{url: "mqtt://host:1883/crsf", broker: "tcp://host:1883", prefix: "crsf/"},
		{url: "mqtt://host:1883/crsf/", broker: "tcp://host:1883", prefix: "crsf/"},
		{url: "tcps://host:8883/a/b", broker: "tcps://host:8883", prefix: "a/b/"},
		{url: "mqtt://user:pw@host:1883/crsf", broker: "tcp://host:1883",
			prefix: "crsf/", user: "user", pass: "pw"},
		{url: "mqtt://host:1883/crsf?client-id=gs0", broker: "tcp://host:1883",
			prefix: "crsf/", clientID: "gs0"},
	} {
		opts, prefix, err := ClientOptionsFromURL(c.url)
		require.NoError(t, err, c.url)
		require.Len(t, opts.Servers, 1, c.url)
		require.Equal(t, c.broker, opts.Servers[0].String(), c.url)
		require.Equal(t, c.prefix, prefix, c.url)
		require.Equal(t, c.user, opts.Username, c.url)
		require.Equal(t, c.pass, opts.Password, c.url)
		if c.clientID != "" {
			require.Equal(t, c.clientID, opts.ClientID, c.url)
		} else {
			require.Contains(t, opts.ClientID, "crsfrx", c.url)
		}
	}
}

func TestClientOptionsFromURLBadURL(t *testing.T) {
	_, _, err := ClientOptionsFromURL("mqtt://bad url\x00")
	require.Error(t, err)
}

func TestChannelsPayloadShape(t *testing.T) {
	p := ChannelsPayload{Valid: true, Failsafe: false}
	p.Channels[0] = 992
	p.Us[0] = 1500
	raw, err := json.Marshal(&p)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"channels", "us", "valid", "failsafe"} {
		require.Contains(t, m, key)
	}
	require.Equal(t, true, m["valid"])
}

func TestLinkPayloadShape(t *testing.T) {
	stats := crsf.LinkStatistics{
		UplinkRSSI1:   72,
		UplinkLQ:      100,
		UplinkSNR:     8,
		RFMode:        2,
		UplinkTXPower: 3,
	}
	raw, err := json.Marshal(&LinkPayload{
		RSSI:      stats.RSSI(),
		LQ:        stats.UplinkLQ,
		SNR:       stats.UplinkSNR,
		RFMode:    stats.RFMode,
		TXPowerMw: stats.TXPowerMilliwatts(),
	})
	require.NoError(t, err)

	var m map[string]float64
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Equal(t, float64(-72), m["rssi_dbm"])
	require.Equal(t, float64(100), m["lq_pct"])
	require.Equal(t, float64(8), m["snr_db"])
	require.Equal(t, float64(2), m["rf_mode"])
	require.Equal(t, float64(100), m["tx_power_mw"])
}
