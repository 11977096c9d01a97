// Package config loads the driver's settings file. Recognized keys are
// exactly those spec.md §6 lists, plus the endpoint and protocol
// identity fields the driver needs to be a standalone Go program (see
// SPEC_FULL.md §4.7): settings loading itself is an external collaborator
// per spec.md §1, but this repo still has to pick a concrete format.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults mirror spec.md §6 ("net.ping_time ... default 1.0") and
// §4.2's codec defaults.
const (
	DefaultPingTime        = 1.0
	DefaultServerID        = 1
	DefaultProtocolVersion = 1
)

// Config is the root settings document.
type Config struct {
	Net      NetConfig      `yaml:"net"`
	Protocol ProtocolConfig `yaml:"protocol"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// NetConfig holds the connection endpoint and keep-alive timing.
type NetConfig struct {
	Host     string  `yaml:"host"`
	Port     uint16  `yaml:"port"`
	PingTime float64 `yaml:"ping_time"`
}

// ProtocolConfig holds the codec's identity fields.
type ProtocolConfig struct {
	ServerID        uint8 `yaml:"server_id"`
	ProtocolVersion uint8 `yaml:"protocol_version"`
}

// MQTTConfig configures the optional secondary event sink.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// PingInterval returns the configured net.ping_time as a Duration.
func (c Config) PingInterval() time.Duration {
	return time.Duration(c.Net.PingTime * float64(time.Second))
}

// Load reads and parses filename, applying defaults for any missing or
// malformed optional field and logging a warning when it does, per
// spec.md §7.2. A missing or unreadable file is still a fatal error —
// there are no sensible defaults for host/port.
func Load(filename string, logger *log.Logger) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		// A type mismatch leaves the offending fields at their zero values
		// and decodes the rest; the defaults below then fill them in.
		if _, ok := err.(*yaml.TypeError); !ok {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		logger.Printf("ignoring malformed settings: %v", err)
	}

	if cfg.Net.PingTime <= 0 {
		logger.Printf("net.ping_time missing or invalid, defaulting to %.1fs", DefaultPingTime)
		cfg.Net.PingTime = DefaultPingTime
	}
	if cfg.Protocol.ServerID == 0 {
		logger.Printf("protocol.server_id missing, defaulting to %d", DefaultServerID)
		cfg.Protocol.ServerID = DefaultServerID
	}
	if cfg.Protocol.ProtocolVersion == 0 {
		logger.Printf("protocol.protocol_version missing, defaulting to %d", DefaultProtocolVersion)
		cfg.Protocol.ProtocolVersion = DefaultProtocolVersion
	}
	if cfg.MQTT.Enabled && cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "radescan"
	}
	if cfg.MQTT.Enabled && cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "radescan-driver"
	}

	return &cfg, nil
}
