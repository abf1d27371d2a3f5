// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/strix/internal/ipset"
	"firestige.xyz/strix/internal/log"
)

// Config represents the top-level static configuration.
// Maps to the `strix:` root key in YAML.
type Config struct {
	Node     NodeConfig     `mapstructure:"node" yaml:"node"`
	PIDFile  string         `mapstructure:"pid_file" yaml:"pid_file"`
	Capture  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Decode   DecodeConfig   `mapstructure:"decode" yaml:"decode"`
	Response ResponseConfig `mapstructure:"response" yaml:"response"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Log      log.Config     `mapstructure:"log" yaml:"log"`
}

// ─── Node Identity ───

// NodeConfig contains sensor identification settings.
type NodeConfig struct {
	Hostname string            `mapstructure:"hostname" yaml:"hostname"` // Empty = os.Hostname()
	Tags     map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// ─── Capture ───

// CaptureConfig selects and configures the packet source.
type CaptureConfig struct {
	Type    string         `mapstructure:"type" yaml:"type"`           // afpacket | file
	Device  string         `mapstructure:"device" yaml:"device"`       // eth0 / ens192
	SnapLen int            `mapstructure:"snap_len" yaml:"snap_len"`   // Snapshot length (default 65535)
	BPF     string         `mapstructure:"bpf" yaml:"bpf"`             // "tcp port 80"
	File    string         `mapstructure:"file" yaml:"file"`           // Savefile path for type=file
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"` // Source-specific (buffer_mb, fanout_id, etc.)
}

// ─── Engine ───

// EngineConfig sizes the decode pipeline.
type EngineConfig struct {
	Workers   int `mapstructure:"workers" yaml:"workers"`       // 0 = one per CPU
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"` // Per-partition channel capacity
}

// ─── Decode ───

// DecodeConfig contains per-protocol decoder settings.
type DecodeConfig struct {
	TCP TCPDecodeConfig `mapstructure:"tcp" yaml:"tcp"`
}

// TCPDecodeConfig controls the TCP codec.
type TCPDecodeConfig struct {
	Checksums        bool   `mapstructure:"checksums" yaml:"checksums"`                   // Verify against the pseudo-header
	DropBadChecksums bool   `mapstructure:"drop_bad_checksums" yaml:"drop_bad_checksums"` // Request drop verdicts inline
	Inline           bool   `mapstructure:"inline" yaml:"inline"`                         // Inline hop rather than passive tap
	MulticastGroups  string `mapstructure:"multicast_groups" yaml:"multicast_groups"`     // Empty = codec default set
}

// ─── Response ───

// ResponseConfig controls active response.
//
// AssumeDelivered decides whether forged forward segments advance their
// sequence number past the triggering payload. When the key is absent it
// resolves to the opposite of decode.tcp.inline: a passive tap saw the
// segment after delivery, an inline hop saw it before.
type ResponseConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	AssumeDelivered bool   `mapstructure:"assume_delivered" yaml:"assume_delivered"`
	Device          string `mapstructure:"device" yaml:"device"` // Empty = capture device
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `strix: ...`.
type configRoot struct {
	Strix Config `mapstructure:"strix"`
}

// Load loads configuration from file.
// The YAML file uses `strix:` as root key; env vars use the STRIX_ prefix
// (e.g., key "strix.log.level" → env "STRIX_LOG_LEVEL").
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file path
	v.SetConfigFile(path)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variable overrides.
	// No explicit env prefix — the `strix.` key prefix naturally maps to STRIX_
	// in env vars via the key replacer (e.g., key "strix.metrics.listen" → env
	// "STRIX_METRICS_LISTEN").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults with "strix." prefix to match the YAML structure
	setDefaults(v)

	// Unmarshal into wrapper → extract inner Config
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Strix

	// assume_delivered is tri-state: absent means "derive from inline", so it
	// cannot carry a viper default.
	if !v.IsSet("strix.response.assume_delivered") {
		cfg.Response.AssumeDelivered = !cfg.Decode.TCP.Inline
	}

	// Validate and apply defaults
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults without reading a file. The result
// is NOT validated: callers override sections first (replay swaps the capture
// source) and then run ValidateAndApplyDefaults themselves.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal defaults: %w", err)
	}
	cfg := root.Strix
	cfg.Response.AssumeDelivered = !cfg.Decode.TCP.Inline
	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "strix." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("strix.pid_file", "/var/run/strix.pid")

	// Capture defaults
	v.SetDefault("strix.capture.type", "afpacket")
	v.SetDefault("strix.capture.snap_len", 65535)

	// Engine defaults
	v.SetDefault("strix.engine.queue_size", 65536)

	// Decode defaults
	v.SetDefault("strix.decode.tcp.checksums", true)
	v.SetDefault("strix.decode.tcp.drop_bad_checksums", false)
	v.SetDefault("strix.decode.tcp.inline", false)

	// Response defaults
	v.SetDefault("strix.response.enabled", false)

	// Metrics defaults
	v.SetDefault("strix.metrics.enabled", true)
	v.SetDefault("strix.metrics.listen", ":9090")
	v.SetDefault("strix.metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("strix.log.level", log.DefaultLevel)
	v.SetDefault("strix.log.pattern", log.DefaultPattern)
	v.SetDefault("strix.log.time", log.DefaultTime)
}

// ValidateAndApplyDefaults validates configuration and applies runtime
// defaults that depend on the environment or on other fields.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true,
	}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error/fatal)", cfg.Log.Level)
	}

	// ── Node hostname auto-detect ──
	if cfg.Node.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		cfg.Node.Hostname = hostname
	}

	// ── Capture validation ──
	switch cfg.Capture.Type {
	case "afpacket":
		if cfg.Capture.Device == "" {
			return fmt.Errorf("capture.device is required when capture.type=afpacket")
		}
	case "file":
		if cfg.Capture.File == "" {
			return fmt.Errorf("capture.file is required when capture.type=file")
		}
	default:
		return fmt.Errorf("unsupported capture.type: %s (must be afpacket/file)", cfg.Capture.Type)
	}
	if cfg.Capture.SnapLen <= 0 {
		return fmt.Errorf("capture.snap_len must be positive, got %d", cfg.Capture.SnapLen)
	}

	// ── Engine validation ──
	if cfg.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.QueueSize <= 0 {
		return fmt.Errorf("engine.queue_size must be positive, got %d", cfg.Engine.QueueSize)
	}

	// ── Decode validation ──
	// The codec falls back to its built-in set when the field is empty; a
	// non-empty literal must parse or startup fails here rather than later.
	if cfg.Decode.TCP.MulticastGroups != "" {
		if _, err := ipset.Parse(cfg.Decode.TCP.MulticastGroups); err != nil {
			return fmt.Errorf("invalid decode.tcp.multicast_groups: %w", err)
		}
	}

	// ── Response device fallback ──
	if cfg.Response.Enabled && cfg.Response.Device == "" {
		cfg.Response.Device = cfg.Capture.Device
	}

	// ── Metrics validation ──
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Listen == "" {
			return fmt.Errorf("metrics.listen is required when metrics.enabled=true")
		}
		if cfg.Metrics.Path == "" {
			return fmt.Errorf("metrics.path is required when metrics.enabled=true")
		}
	}

	return nil
}
