// Package source delivers decoded point-cloud messages to the display. Both
// sources speak the cloud wire codec; decode failures are logged and the
// payload is dropped without stopping the stream.
package source

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
)

// CloudHandler receives each successfully decoded cloud.
type CloudHandler func(pc *cloud.PointCloud)

// MQTTSourceConfig configures an MQTT subscription source.
type MQTTSourceConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	Handler  CloudHandler

	// ConnectTimeout bounds the initial connect wait; zero means 10s. A
	// connect still pending at the deadline is not fatal: the client keeps
	// retrying in the background.
	ConnectTimeout time.Duration
}

// MQTTSource subscribes to a broker topic carrying encoded cloud frames.
type MQTTSource struct {
	client  mqtt.Client
	topic   string
	handler CloudHandler

	mu        sync.Mutex
	connected bool
}

// NewMQTTSource connects to the broker and subscribes. The client reconnects
// and resubscribes automatically on connection loss.
func NewMQTTSource(cfg MQTTSourceConfig) (*MQTTSource, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt source requires a broker URL")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("mqtt source requires a handler")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "cloudview"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	s := &MQTTSource{topic: cfg.Topic, handler: cfg.Handler}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOrderMatters(true) // clouds must reach the display in arrival order
	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(s.onConnectionLost)

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		// Retry runs in the background; say so rather than start up silent
		// against a dead broker URL.
		monitoring.Logf("MQTT connect to %s still pending after %s, retrying in background", cfg.Broker, cfg.ConnectTimeout)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", cfg.Broker, err)
	}
	return s, nil
}

func (s *MQTTSource) onConnect(client mqtt.Client) {
	monitoring.Logf("MQTT connected, subscribing to %s", s.topic)
	token := client.Subscribe(s.topic, 0, s.onMessage)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			monitoring.Logf("MQTT subscribe to %s failed: %v", s.topic, err)
		}
	}()

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
}

func (s *MQTTSource) onConnectionLost(_ mqtt.Client, err error) {
	monitoring.Logf("MQTT connection lost: %v", err)
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	pc, err := cloud.DecodeFrame(msg.Payload())
	if err != nil {
		monitoring.Logf("Dropping undecodable cloud frame from %s: %v", msg.Topic(), err)
		return
	}
	s.handler(pc)
}

// Connected reports whether the broker connection is up.
func (s *MQTTSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
}
