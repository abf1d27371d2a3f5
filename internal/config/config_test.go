package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes content to a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadValidConfig(t *testing.T) {
	configContent := `
strix:
  node:
    hostname: "sensor-01"
    tags:
      env: "test"
  pid_file: "/tmp/strix-test.pid"
  capture:
    type: "afpacket"
    device: "eth0"
    snap_len: 2048
    bpf: "tcp"
    options:
      buffer_mb: 16
      fanout_id: 17
  engine:
    workers: 4
    queue_size: 1024
  decode:
    tcp:
      checksums: true
      drop_bad_checksums: true
      inline: true
      multicast_groups: "[224.0.0.0/4]"
  response:
    enabled: true
    device: "eth1"
  metrics:
    enabled: true
    listen: "0.0.0.0:9090"
    path: "/metrics"
  log:
    level: "debug"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Node.Hostname != "sensor-01" {
		t.Errorf("Expected hostname sensor-01, got %s", cfg.Node.Hostname)
	}
	if cfg.Node.Tags["env"] != "test" {
		t.Errorf("Expected tag env=test, got %v", cfg.Node.Tags)
	}
	if cfg.PIDFile != "/tmp/strix-test.pid" {
		t.Errorf("Expected PIDFile /tmp/strix-test.pid, got %s", cfg.PIDFile)
	}
	if cfg.Capture.Type != "afpacket" {
		t.Errorf("Expected capture type afpacket, got %s", cfg.Capture.Type)
	}
	if cfg.Capture.Device != "eth0" {
		t.Errorf("Expected capture device eth0, got %s", cfg.Capture.Device)
	}
	if cfg.Capture.SnapLen != 2048 {
		t.Errorf("Expected snap_len 2048, got %d", cfg.Capture.SnapLen)
	}
	if cfg.Capture.BPF != "tcp" {
		t.Errorf("Expected bpf tcp, got %s", cfg.Capture.BPF)
	}
	if got, ok := cfg.Capture.Options["buffer_mb"]; !ok || got != 16 {
		t.Errorf("Expected capture option buffer_mb=16, got %v", got)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Engine.Workers)
	}
	if cfg.Engine.QueueSize != 1024 {
		t.Errorf("Expected queue_size 1024, got %d", cfg.Engine.QueueSize)
	}
	if !cfg.Decode.TCP.Checksums {
		t.Error("Expected decode.tcp.checksums true")
	}
	if !cfg.Decode.TCP.DropBadChecksums {
		t.Error("Expected decode.tcp.drop_bad_checksums true")
	}
	if !cfg.Decode.TCP.Inline {
		t.Error("Expected decode.tcp.inline true")
	}
	if cfg.Decode.TCP.MulticastGroups != "[224.0.0.0/4]" {
		t.Errorf("Expected multicast_groups [224.0.0.0/4], got %s", cfg.Decode.TCP.MulticastGroups)
	}
	if !cfg.Response.Enabled {
		t.Error("Expected response enabled")
	}
	if cfg.Response.Device != "eth1" {
		t.Errorf("Expected response device eth1, got %s", cfg.Response.Device)
	}
	if cfg.Metrics.Listen != "0.0.0.0:9090" {
		t.Errorf("Expected metrics listen 0.0.0.0:9090, got %s", cfg.Metrics.Listen)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	configContent := `
strix:
  capture:
    device: "eth0"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.PIDFile != "/var/run/strix.pid" {
		t.Errorf("Expected default PIDFile, got %s", cfg.PIDFile)
	}
	if cfg.Capture.Type != "afpacket" {
		t.Errorf("Expected default capture type afpacket, got %s", cfg.Capture.Type)
	}
	if cfg.Capture.SnapLen != 65535 {
		t.Errorf("Expected default snap_len 65535, got %d", cfg.Capture.SnapLen)
	}
	if cfg.Engine.QueueSize != 65536 {
		t.Errorf("Expected default queue_size 65536, got %d", cfg.Engine.QueueSize)
	}
	if !cfg.Decode.TCP.Checksums {
		t.Error("Expected checksums enabled by default")
	}
	if cfg.Decode.TCP.DropBadChecksums {
		t.Error("Expected drop_bad_checksums disabled by default")
	}
	if cfg.Decode.TCP.Inline {
		t.Error("Expected inline disabled by default")
	}
	if cfg.Decode.TCP.MulticastGroups != "" {
		t.Errorf("Expected empty multicast_groups (codec default), got %s", cfg.Decode.TCP.MulticastGroups)
	}
	if cfg.Response.Enabled {
		t.Error("Expected response disabled by default")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics enabled by default")
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Errorf("Expected default metrics listen :9090, got %s", cfg.Metrics.Listen)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Node.Hostname == "" {
		t.Error("Expected hostname auto-detection, got empty")
	}
}

func TestLoadAssumeDeliveredDerivedFromInline(t *testing.T) {
	// Passive tap: segments already reached the peer.
	passive := `
strix:
  capture:
    device: "eth0"
`
	cfg, err := Load(writeConfig(t, passive))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Response.AssumeDelivered {
		t.Error("Expected assume_delivered true for passive deployment")
	}

	// Inline hop: the engine sits before the peer.
	inline := `
strix:
  capture:
    device: "eth0"
  decode:
    tcp:
      inline: true
`
	cfg, err = Load(writeConfig(t, inline))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Response.AssumeDelivered {
		t.Error("Expected assume_delivered false for inline deployment")
	}
}

func TestLoadAssumeDeliveredExplicitOverride(t *testing.T) {
	configContent := `
strix:
  capture:
    device: "eth0"
  decode:
    tcp:
      inline: true
  response:
    assume_delivered: true
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Response.AssumeDelivered {
		t.Error("Expected explicit assume_delivered=true to win over inline derivation")
	}
}

func TestLoadResponseDeviceFallsBackToCapture(t *testing.T) {
	configContent := `
strix:
  capture:
    device: "eth0"
  response:
    enabled: true
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Response.Device != "eth0" {
		t.Errorf("Expected response device eth0 (capture fallback), got %s", cfg.Response.Device)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STRIX_METRICS_LISTEN", ":9191")

	configContent := `
strix:
  capture:
    device: "eth0"
  metrics:
    listen: ":9090"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Metrics.Listen != ":9191" {
		t.Errorf("Expected env override :9191, got %s", cfg.Metrics.Listen)
	}
}

func TestLoadInvalidLogLevel(t *testing.T) {
	configContent := `
strix:
  capture:
    device: "eth0"
  log:
    level: "loud"
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Error("Expected error for invalid log level, got nil")
	}
}

func TestLoadInvalidCaptureType(t *testing.T) {
	configContent := `
strix:
  capture:
    type: "ring0"
    device: "eth0"
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Error("Expected error for unsupported capture type, got nil")
	}
}

func TestLoadFileCaptureRequiresPath(t *testing.T) {
	configContent := `
strix:
  capture:
    type: "file"
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Error("Expected error for file capture without path, got nil")
	}

	withPath := `
strix:
  capture:
    type: "file"
    file: "/tmp/trace.pcap"
`
	cfg, err := Load(writeConfig(t, withPath))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Capture.File != "/tmp/trace.pcap" {
		t.Errorf("Expected capture file /tmp/trace.pcap, got %s", cfg.Capture.File)
	}
}

func TestLoadInvalidMulticastGroups(t *testing.T) {
	configContent := `
strix:
  capture:
    device: "eth0"
  decode:
    tcp:
      multicast_groups: "[not-an-addr/8]"
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Error("Expected error for bad multicast groups literal, got nil")
	}
}

func TestLoadInvalidQueueSize(t *testing.T) {
	configContent := `
strix:
  capture:
    device: "eth0"
  engine:
    queue_size: 0
`
	if _, err := Load(writeConfig(t, configContent)); err == nil {
		t.Error("Expected error for zero queue size, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}
