package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitaminmoo/bw16-tool/internal/protocol"
)

// Config is the on-disk configuration (~/.bw16/config.yaml).
type Config struct {
	Transport string       `yaml:"transport"` // "serial", "ble" or "sim"
	Serial    SerialConfig `yaml:"serial"`
	BLE       BLEConfig    `yaml:"ble"`
	Detect    DetectConfig `yaml:"detect"`
	Scan      ScanConfig   `yaml:"scan"`
	Attack    AttackConfig `yaml:"attack"`
	Write     WriteConfig  `yaml:"write"`
	Store     StoreConfig  `yaml:"store"`
}

// SerialConfig configures the UART link.
type SerialConfig struct {
	Port        string        `yaml:"port"` // empty = first USB serial port
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// BLEConfig configures the BLE UART bridge.
type BLEConfig struct {
	Name        string        `yaml:"name"`
	ScanTimeout time.Duration `yaml:"scan_timeout"`
	Chunk       int           `yaml:"chunk"` // bytes per GATT write
	ChunkDelay  time.Duration `yaml:"chunk_delay"`
}

// DetectConfig holds the firmware probe windows.
type DetectConfig struct {
	BootWait       time.Duration `yaml:"boot_wait"`
	InfoWait       time.Duration `yaml:"info_wait"`
	LegacyInfoWait time.Duration `yaml:"legacy_info_wait"`
	PingWait       time.Duration `yaml:"ping_wait"`
	HelpWait       time.Duration `yaml:"help_wait"`
	ATWait         time.Duration `yaml:"at_wait"`
	ForceProfile   string        `yaml:"force_profile"` // skip detection when set
}

// ScanConfig holds the scan flow timings.
type ScanConfig struct {
	Duration     int           `yaml:"duration"` // ms passed to the firmware, 0 = its default
	PollInterval time.Duration `yaml:"poll_interval"`
	PollCount    int           `yaml:"poll_count"`
	ListWait     time.Duration `yaml:"list_wait"`
	ClientWait   time.Duration `yaml:"client_wait"`
	BLEWait      time.Duration `yaml:"ble_wait"`
	BLEListWait  time.Duration `yaml:"ble_list_wait"`
}

// AttackConfig holds the defaults used when building attack commands.
type AttackConfig struct {
	Reason    int    `yaml:"reason"`
	Portal    int    `yaml:"portal"`
	MAC       string `yaml:"mac"` // "random" or AA:BB:CC:DD:EE:FF
	APChannel int    `yaml:"ap_channel"`
}

// WriteConfig controls pacing and failure isolation on the write path.
type WriteConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxFailures uint32        `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// StoreConfig controls local persistence.
type StoreConfig struct {
	Dir   string `yaml:"dir"`
	Audit bool   `yaml:"audit"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dir := ".bw16"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".bw16")
	}
	return Config{
		Transport: "serial",
		Serial: SerialConfig{
			Baud:        115200,
			ReadTimeout: 100 * time.Millisecond,
		},
		BLE: BLEConfig{
			Name:        "BW16",
			ScanTimeout: 15 * time.Second,
			Chunk:       20,
			ChunkDelay:  20 * time.Millisecond,
		},
		Detect: DetectConfig{
			BootWait:       500 * time.Millisecond,
			InfoWait:       500 * time.Millisecond,
			LegacyInfoWait: 500 * time.Millisecond,
			PingWait:       300 * time.Millisecond,
			HelpWait:       500 * time.Millisecond,
			ATWait:         300 * time.Millisecond,
		},
		Scan: ScanConfig{
			PollInterval: 500 * time.Millisecond,
			PollCount:    20,
			ListWait:     1500 * time.Millisecond,
			ClientWait:   500 * time.Millisecond,
			BLEWait:      6 * time.Second,
			BLEListWait:  time.Second,
		},
		Attack: AttackConfig{
			Reason:    2,
			Portal:    1,
			MAC:       "random",
			APChannel: 6,
		},
		Write: WriteConfig{
			Interval:    50 * time.Millisecond,
			MaxFailures: 5,
			Cooldown:    10 * time.Second,
		},
		Store: StoreConfig{
			Dir:   dir,
			Audit: true,
		},
	}
}

// DefaultPath returns the default config file path (~/.bw16/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bw16", "config.yaml"), nil
}

// Load reads a config file over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Transport {
	case "serial", "ble", "sim":
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", c.Serial.Baud)
	}
	if c.BLE.Chunk < 1 {
		return fmt.Errorf("ble chunk must be positive, got %d", c.BLE.Chunk)
	}
	if c.Attack.Reason < 0 || c.Attack.Reason >= len(protocol.DeauthReasons) {
		return fmt.Errorf("deauth reason %d out of range 0-%d", c.Attack.Reason, len(protocol.DeauthReasons)-1)
	}
	if c.Attack.Portal < 0 || c.Attack.Portal >= len(protocol.Portals) {
		return fmt.Errorf("portal %d out of range 0-%d", c.Attack.Portal, len(protocol.Portals)-1)
	}
	if !protocol.ValidChannel(c.Attack.APChannel) {
		return fmt.Errorf("channel %d is not a WiFi channel", c.Attack.APChannel)
	}
	if c.Attack.MAC != "random" && !protocol.ValidMAC(c.Attack.MAC) {
		return fmt.Errorf("attack mac %q is not a MAC address", c.Attack.MAC)
	}
	if c.Scan.PollCount < 1 {
		return fmt.Errorf("scan poll_count must be at least 1")
	}
	return nil
}
