package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the gNB-DU configuration.
type Config struct {
	NF            NFConfig            `yaml:"nf"`
	SBI           SBIConfig           `yaml:"sbi"`
	NRF           NRFConfig           `yaml:"nrf"`
	CU            CUConfig            `yaml:"cu"`
	PLMN          PLMNConfig          `yaml:"plmn"`
	PHY           PHYConfig           `yaml:"phy"`
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

// CUConfig holds the statically-cached CU address this DU forwards Initial
// UL RRC Message Transfer to.
type CUConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PLMNConfig contains PLMN configuration.
type PLMNConfig struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
}

// PHYConfig holds the PHY layer constants grounded on du.py's PhyLayer.
type PHYConfig struct {
	Numerology        int `yaml:"numerology"`
	SlotsPerFrame     int `yaml:"slots_per_frame"`
	ResourceBlocks    int `yaml:"resource_blocks"`
	SymbolsPerSlot    int `yaml:"symbols_per_slot"`
	SubcarriersPerRB  int `yaml:"subcarriers_per_rb"`
	SlotDurationMS    int `yaml:"slot_duration_ms"`
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

// DefaultConfig returns the loopback default: DU's fixed port 38473 per
// du.py, a statically cached CU peer address, and the PHY constants
// du.py's PhyLayer hard-codes (numerology 1, 20 slots/frame, 100 RBs
// capped from the real 273 for simulation, 14 symbols, 12 subcarriers).
func DefaultConfig() *Config {
	return &Config{
		NF: NFConfig{
			Name:        "gnb-du-1",
			InstanceID:  "00000000-0000-0000-0000-000000000008",
			Description: "gNB-DU Distributed Unit",
		},
		SBI: SBIConfig{
			Scheme:      "http",
			BindAddress: "127.0.0.1",
			Port:        38473,
		},
		NRF: NRFConfig{
			URL:               "http://127.0.0.1:8000",
			Enabled:           true,
			HeartbeatInterval: 30 * time.Second,
		},
		CU: CUConfig{
			URL:     "http://127.0.0.1:38472",
			Timeout: 5 * time.Second,
		},
		PLMN: PLMNConfig{
			MCC: "001",
			MNC: "01",
		},
		PHY: PHYConfig{
			Numerology:       1,
			SlotsPerFrame:    20,
			ResourceBlocks:   100,
			SymbolsPerSlot:   14,
			SubcarriersPerRB: 12,
			SlotDurationMS:   1,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9101},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}
