package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the AMF configuration
type Config struct {
	NF            NFConfig            `yaml:"nf"`
	SBI           SBIConfig           `yaml:"sbi"`
	NRF           NRFConfig           `yaml:"nrf"`
	AUSF          AUSFConfig          `yaml:"ausf"`
	UDM           UDMConfig           `yaml:"udm"`
	SMF           SMFConfig           `yaml:"smf"`
	PLMN          PLMNConfig          `yaml:"plmn"`
	AMF           AMFIdentity         `yaml:"amf"`
	Security      SecurityConfig      `yaml:"security"`
	Timers        TimersConfig        `yaml:"timers"`
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

// AUSFConfig holds the statically-cached AUSF address this AMF calls to
// obtain authentication vectors. No NF in this emulator performs live NRF
// discovery yet, so every peer address is resolved from static config.
type AUSFConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UDMConfig holds the statically-cached UDM address AMF calls to register
// itself as the UE's serving AMF on successful registration.
type UDMConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SMFConfig holds the statically-cached SMF address AMF forwards PDU
// session establishment requests to.
type SMFConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PLMNConfig contains PLMN configuration
type PLMNConfig struct {
	MCC string `yaml:"mcc"`
	MNC string `yaml:"mnc"`
	TAC string `yaml:"tac"`
}

// AMFIdentity holds the GUAMI components and the slices this AMF serves.
type AMFIdentity struct {
	RegionID        uint8          `yaml:"region_id"`
	SetID           uint16         `yaml:"set_id"`  // 10 bits
	Pointer         uint8          `yaml:"pointer"` // 6 bits
	SupportedSNSSAI []SNSSAIConfig `yaml:"supported_snssai"`
}

// SNSSAIConfig is a network slice this AMF serves.
type SNSSAIConfig struct {
	SST uint8  `yaml:"sst"`
	SD  string `yaml:"sd,omitempty"`
}

// SecurityConfig holds the NAS security algorithm preference order.
type SecurityConfig struct {
	IntegrityOrder []string `yaml:"integrity_order"`
	CipheringOrder []string `yaml:"ciphering_order"`
}

// TimersConfig holds NAS procedure timers.
type TimersConfig struct {
	T3512 int `yaml:"t3512"` // periodic registration update timer, seconds
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

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
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
	if len(c.Security.IntegrityOrder) == 0 || len(c.Security.CipheringOrder) == 0 {
		return fmt.Errorf("security.integrity_order and security.ciphering_order are required")
	}
	return nil
}

// GetSBIURL returns the full SBI URL
func (c *Config) GetSBIURL() string {
	return fmt.Sprintf("%s://%s:%d", c.SBI.Scheme, c.SBI.BindAddress, c.SBI.Port)
}

// GetGUAMI renders the GUAMI as "<mcc><mnc>-<regionId>-<setId>-<pointer>".
func (c *Config) GetGUAMI() string {
	return fmt.Sprintf("%s%s-%02X-%03X-%02X", c.PLMN.MCC, c.PLMN.MNC, c.AMF.RegionID, c.AMF.SetID, c.AMF.Pointer)
}

// DefaultConfig returns a default configuration: loopback SBI on the AMF's
// fixed port, NRF registration at its default address, and statically
// cached AUSF/UDM/SMF peer addresses.
func DefaultConfig() *Config {
	return &Config{
		NF: NFConfig{
			Name:        "amf-1",
			InstanceID:  "00000000-0000-0000-0000-000000000001",
			Description: "Access and Mobility Management Function",
		},
		SBI: SBIConfig{
			Scheme:      "http",
			BindAddress: "127.0.0.1",
			Port:        9001,
		},
		NRF: NRFConfig{
			URL:               "http://127.0.0.1:8000",
			Enabled:           true,
			HeartbeatInterval: 30 * time.Second,
		},
		AUSF: AUSFConfig{
			URL:     "http://127.0.0.1:9003",
			Timeout: 5 * time.Second,
		},
		UDM: UDMConfig{
			URL:     "http://127.0.0.1:9004",
			Timeout: 5 * time.Second,
		},
		SMF: SMFConfig{
			URL:     "http://127.0.0.1:9002",
			Timeout: 5 * time.Second,
		},
		PLMN: PLMNConfig{
			MCC: "001",
			MNC: "01",
			TAC: "000001",
		},
		AMF: AMFIdentity{
			RegionID: 0x01,
			SetID:    0x001,
			Pointer:  0x01,
			SupportedSNSSAI: []SNSSAIConfig{
				{SST: 1, SD: "010203"},
				{SST: 2, SD: "020304"},
			},
		},
		Security: SecurityConfig{
			IntegrityOrder: []string{"128-NIA1", "128-NIA2"},
			CipheringOrder: []string{"128-NEA1", "128-NEA2"},
		},
		Timers: TimersConfig{
			T3512: 3240,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Port: 9094},
			Tracing: TracingConfig{Enabled: false, Exporter: "otlp"},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		},
	}
}
