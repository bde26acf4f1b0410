package monitor

import (
	"net/url"
	"strings"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Queue wraps an MQTT client for publishing under a topic prefix.
type Queue struct {
	Client      paho.Client
	TopicPrefix string
}

// ClientOptionsFromURL creates ClientOptions from URL. The URL path
// becomes the topic prefix, and a "client-id" query parameter overrides
// the default client identity derived from the machine ID.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}

	clientID := u.Query().Get("client-id")
	if clientID == "" {
		clientID = defaultClientID()
	}
	opts.SetClientID(clientID)

	return opts, topicPrefix, nil
}

// defaultClientID derives a stable client identity from the machine ID.
func defaultClientID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("monitor: machine id unavailable: %v", err)
		return "crsfrx"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return "crsfrx-" + id
}

// NewQueueFromURL creates a Queue from a broker URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:      paho.NewClient(opts),
		TopicPrefix: topicPrefix,
	}, nil
}

// Connect connects the client and waits for the broker handshake.
func (q *Queue) Connect() error {
	token := q.Client.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(0)
	return nil
}

// Pub publishes payload fire-and-forget under the topic prefix.
func (q *Queue) Pub(topic string, payload []byte) {
	if glog.V(2) {
		glog.Infof("PUB %q", q.TopicPrefix+topic)
	}
	q.Client.Publish(q.TopicPrefix+topic, 0, false, payload)
}
