package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the gNB-CU configuration.
type Config struct {
	NF            NFConfig            `yaml:"nf"`
	SBI           SBIConfig           `yaml:"sbi"`
	NRF           NRFConfig           `yaml:"nrf"`
	PLMN          PLMNConfig          `yaml:"plmn"`
	RRC           RRCConfig           `yaml:"rrc"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// NFConfig contains NF instance configuration.
type NFConfig struct {
	Name        string `yaml:"name"`
	InstanceID  string `yaml:"instance_id"`
	Description string `yaml:"description"`
}

// SBIConfig contains the HTTP surface configuration.
type SBIConfig struct {
	Scheme      string `yaml:"scheme"`
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// NRFConfig contains NRF client configuration.
type NRFConfig struct {
	URL               string        `yaml:"url"`
	Enabled           bool          `yaml:"enabled"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// PLMNConfig contains PLMN configuration.
type PLMNConfig struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
}

// RRCConfig holds the fields baked into every RRC Setup this CU emits.
type RRCConfig struct {
	Version              string `yaml:"version"`
	TPollRetransmitMS     int    `yaml:"t_poll_retransmit_ms"`
	TReassemblyMS         int    `yaml:"t_reassembly_ms"`
	SNFieldLengthBits     int    `yaml:"sn_field_length_bits"`
}

// ObservabilityConfig contains observability settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file, falling back to DefaultConfig
// when the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.NF.Name == "" {
		return fmt.Errorf("nf.name is required")
	}
	if c.SBI.Port <= 0 || c.SBI.Port > 65535 {
		return fmt.Errorf("invalid sbi.port: %d", c.SBI.Port)
	}
	if c.PLMN.MCC == "" || c.PLMN.MNC == "" {
		return fmt.Errorf("plmn.mcc and plmn.mnc are required")
	}
	return nil
}

// GetSBIURL returns the full SBI URL.
func (c *Config) GetSBIURL() string {
	return fmt.Sprintf("%s://%s:%d", c.SBI.Scheme, c.SBI.BindAddress, c.SBI.Port)
}

// DefaultConfig returns the loopback default: CU's fixed port 38472 per
// cu.py, served from an NRF registration, with the RRC Setup parameters
// cu.py's create_rrc_setup hard-codes.
func DefaultConfig() *Config {
	return &Config{
		NF: NFConfig{
			Name:        "gnb-cu-1",
			InstanceID:  "00000000-0000-0000-0000-000000000007",
			Description: "gNB-CU Centralized Unit",
		},
		SBI: SBIConfig{
			Scheme:      "http",
			BindAddress: "127.0.0.1",
			Port:        38472,
		},
		NRF: NRFConfig{
			URL:               "http://127.0.0.1:8000",
			Enabled:           true,
			HeartbeatInterval: 30 * time.Second,
		},
		PLMN: PLMNConfig{
			MCC: "001",
			MNC: "01",
		},
		RRC: RRCConfig{
			Version:           "16.6.0",
			TPollRetransmitMS: 25,
			TReassemblyMS:     35,
			SNFieldLengthBits: 12,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9100},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}
