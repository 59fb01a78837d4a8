package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the gNB configuration.
type Config struct {
	NF            NFConfig            `yaml:"nf"`
	SBI           SBIConfig           `yaml:"sbi"`
	NRF           NRFConfig           `yaml:"nrf"`
	AMF           AMFConfig           `yaml:"amf"`
	PLMN          PLMNConfig          `yaml:"plmn"`
	Cell          CellConfig          `yaml:"cell"`
	Timers        TimersConfig        `yaml:"timers"`
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

// AMFConfig holds the statically-cached AMF address this gNB forwards
// extracted NAS payloads to. No NF in this emulator performs live NRF
// discovery yet, so the peer address is resolved from static config.
type AMFConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// PLMNConfig contains PLMN configuration.
type PLMNConfig struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
	TAC string `yaml:"tac"`
}

// CellConfig describes the single cell this gNB serves.
type CellConfig struct {
	NRCellID         uint64 `yaml:"nr_cell_id"`
	PCI              uint16 `yaml:"pci"`
	FrequencyBandNR  uint16 `yaml:"frequency_band_nr"`
}

// TimersConfig holds background worker intervals.
type TimersConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
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

// DefaultConfig returns the loopback default: gNB's fixed port 38412, NRF
// registration, and a statically cached AMF peer address.
func DefaultConfig() *Config {
	return &Config{
		NF: NFConfig{
			Name:        "gnb-1",
			InstanceID:  "00000000-0000-0000-0000-000000000006",
			Description: "gNodeB",
		},
		SBI: SBIConfig{
			Scheme:      "http",
			BindAddress: "127.0.0.1",
			Port:        38412,
		},
		NRF: NRFConfig{
			URL:               "http://127.0.0.1:8000",
			Enabled:           true,
			HeartbeatInterval: 30 * time.Second,
		},
		AMF: AMFConfig{
			URL:               "http://127.0.0.1:9001",
			Timeout:           5 * time.Second,
			HeartbeatInterval: 60 * time.Second,
		},
		PLMN: PLMNConfig{
			MCC: "001",
			MNC: "01",
			TAC: "000001",
		},
		Cell: CellConfig{
			NRCellID:        1,
			PCI:              1,
			FrequencyBandNR: 78,
		},
		Timers: TimersConfig{
			HeartbeatInterval: 60 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9099},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}
