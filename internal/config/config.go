// Package config loads the daemon configuration. Runtime option changes made
// through the property panel are deliberately not written back here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root daemon configuration. Pointer fields are optional in
// the JSON file; the Get* methods fall back to defaults, so partial configs
// are safe.
type Config struct {
	// Transport
	MQTTBroker   *string `json:"mqtt_broker,omitempty"`
	MQTTTopic    *string `json:"mqtt_topic,omitempty"`
	MQTTClientID *string `json:"mqtt_client_id,omitempty"`
	UDPListen    *string `json:"udp_listen,omitempty"`

	// HTTP (property API + websocket + metrics)
	HTTPListen *string `json:"http_listen,omitempty"`

	// Display
	FixedFrame    *string  `json:"fixed_frame,omitempty"`
	DecayTime     *float64 `json:"decay_time,omitempty"`
	BillboardSize *float64 `json:"billboard_size,omitempty"`
	UpdateHz      *float64 `json:"update_hz,omitempty"`

	// Static frame poses, frame name -> 16 row-major values (frame -> world).
	Frames map[string][]float64 `json:"frames,omitempty"`
}

// Defaults.
const (
	DefaultMQTTTopic  = "cloudview/points"
	DefaultUDPListen  = ""
	DefaultHTTPListen = ":8044"
	DefaultFixedFrame = "world"
	DefaultUpdateHz   = 30.0
)

// Load reads and validates a JSON config file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges. Zero-value Config is valid.
func (c *Config) Validate() error {
	if c.DecayTime != nil && *c.DecayTime < 0 {
		return fmt.Errorf("decay_time must be >= 0, got %v", *c.DecayTime)
	}
	if c.BillboardSize != nil && *c.BillboardSize <= 0 {
		return fmt.Errorf("billboard_size must be > 0, got %v", *c.BillboardSize)
	}
	if c.UpdateHz != nil && (*c.UpdateHz <= 0 || *c.UpdateHz > 240) {
		return fmt.Errorf("update_hz must be in (0, 240], got %v", *c.UpdateHz)
	}
	for frame, pose := range c.Frames {
		if len(pose) != 16 {
			return fmt.Errorf("frame %q pose must have 16 values, got %d", frame, len(pose))
		}
	}
	return nil
}

// GetMQTTBroker returns the broker URL or empty when MQTT is disabled.
func (c *Config) GetMQTTBroker() string {
	if c.MQTTBroker != nil {
		return *c.MQTTBroker
	}
	return ""
}

// GetMQTTTopic returns the subscription topic.
func (c *Config) GetMQTTTopic() string {
	if c.MQTTTopic != nil {
		return *c.MQTTTopic
	}
	return DefaultMQTTTopic
}

// GetMQTTClientID returns the MQTT client id.
func (c *Config) GetMQTTClientID() string {
	if c.MQTTClientID != nil {
		return *c.MQTTClientID
	}
	return "cloudview"
}

// GetUDPListen returns the UDP listen address, empty when disabled.
func (c *Config) GetUDPListen() string {
	if c.UDPListen != nil {
		return *c.UDPListen
	}
	return DefaultUDPListen
}

// GetHTTPListen returns the HTTP listen address.
func (c *Config) GetHTTPListen() string {
	if c.HTTPListen != nil {
		return *c.HTTPListen
	}
	return DefaultHTTPListen
}

// GetFixedFrame returns the display's fixed frame.
func (c *Config) GetFixedFrame() string {
	if c.FixedFrame != nil {
		return *c.FixedFrame
	}
	return DefaultFixedFrame
}

// GetDecayTime returns the initial decay time in seconds.
func (c *Config) GetDecayTime() float32 {
	if c.DecayTime != nil {
		return float32(*c.DecayTime)
	}
	return 0
}

// GetBillboardSize returns the initial billboard size, 0 when unset so the
// display default applies.
func (c *Config) GetBillboardSize() float32 {
	if c.BillboardSize != nil {
		return float32(*c.BillboardSize)
	}
	return 0
}

// GetUpdateHz returns the tick frequency for the display update loop.
func (c *Config) GetUpdateHz() float64 {
	if c.UpdateHz != nil {
		return *c.UpdateHz
	}
	return DefaultUpdateHz
}
