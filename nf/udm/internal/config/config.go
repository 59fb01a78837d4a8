package config

import (
	"fmt"
	"os"
	"time"

	udmclickhouse "github.com/fivegcore/emulator/nf/udm/internal/clickhouse"
	"gopkg.in/yaml.v3"
)

// Config represents the UDM configuration
type Config struct {
	NF            NFConfig            `yaml:"nf"`
	SBI           SBIConfig           `yaml:"sbi"`
	NRF           NRFConfig           `yaml:"nrf"`
	Storage       StorageConfig       `yaml:"storage"`
	PLMN          PLMNConfig          `yaml:"plmn"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// NFConfig contains NF instance configuration
type NFConfig struct {
	Name        string `yaml:"name"`
	InstanceID  string `yaml:"instance_id"`
	Description string `yaml:"description"`
}

// SBIConfig contains Service-Based Interface configuration
type SBIConfig struct {
	Scheme      string    `yaml:"scheme"`
	BindAddress string    `yaml:"bind_address"`
	Port        int       `yaml:"port"`
	TLS         TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS configuration
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// NRFConfig contains NRF client configuration
type NRFConfig struct {
	URL               string        `yaml:"url"`
	Enabled           bool          `yaml:"enabled"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// StorageConfig selects and configures the subscriber-data repository. An
// empty ClickHouse.Addresses falls back to the in-memory repository — no
// external database is required to run the emulator.
type StorageConfig struct {
	ClickHouse udmclickhouse.Config `yaml:"clickhouse"`
}

// PLMNConfig contains PLMN configuration
type PLMNConfig struct {
	MCC string `yaml:"mcc"` // Mobile Country Code
	MNC string `yaml:"mnc"` // Mobile Network Code
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Algorithm string `yaml:"algorithm"` // 5g_aka (hash-derived, see common/akahash)
}

// ObservabilityConfig contains observability settings
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig contains logging configuration
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

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.NF.Name == "" {
		return fmt.Errorf("nf.name is required")
	}

	if c.NF.InstanceID == "" {
		return fmt.Errorf("nf.instance_id is required")
	}

	if c.SBI.Port <= 0 || c.SBI.Port > 65535 {
		return fmt.Errorf("invalid sbi.port: %d", c.SBI.Port)
	}

	if c.NRF.Enabled && c.NRF.URL == "" {
		return fmt.Errorf("nrf.url is required when nrf.enabled is true")
	}

	if c.PLMN.MCC == "" || c.PLMN.MNC == "" {
		return fmt.Errorf("plmn.mcc and plmn.mnc are required")
	}

	if c.Auth.Algorithm == "" {
		return fmt.Errorf("auth.algorithm is required")
	}

	return nil
}

// UsesClickHouse reports whether the repository should be ClickHouse-backed.
func (c *Config) UsesClickHouse() bool {
	return len(c.Storage.ClickHouse.Addresses) > 0
}

// GetSBIURL returns the full SBI URL
func (c *Config) GetSBIURL() string {
	return fmt.Sprintf("%s://%s:%d", c.SBI.Scheme, c.SBI.BindAddress, c.SBI.Port)
}

// DefaultConfig returns a default configuration: loopback SBI on the fixed
// UDM port, in-memory repository, NRF registration enabled at its default
// address.
func DefaultConfig() *Config {
	return &Config{
		NF: NFConfig{
			Name:        "udm-1",
			InstanceID:  "00000000-0000-0000-0000-000000000004",
			Description: "Unified Data Management",
		},
		SBI: SBIConfig{
			Scheme:      "http",
			BindAddress: "127.0.0.1",
			Port:        9004,
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
		Auth: AuthConfig{
			Algorithm: "5g_aka",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9094},
			Tracing: TracingConfig{Enabled: false, Exporter: "otlp"},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}
