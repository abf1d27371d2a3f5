package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplayConfigDefaults(t *testing.T) {
	origConfig, origBPF := configFile, replayBPF
	defer func() { configFile, replayBPF = origConfig, origBPF }()

	configFile = filepath.Join(t.TempDir(), "missing.yml")
	replayBPF = ""

	cfg, err := replayConfig("/tmp/capture.pcap")
	require.NoError(t, err)

	require.Equal(t, "file", cfg.Capture.Type)
	require.Equal(t, "/tmp/capture.pcap", cfg.Capture.File)
	require.False(t, cfg.Metrics.Enabled, "replay must not bind the metrics port")
	require.False(t, cfg.Response.Enabled, "replay must never forge responses")
	require.Empty(t, cfg.PIDFile)

	// defaults still apply underneath the overrides
	require.True(t, cfg.Decode.TCP.Checksums)
	require.True(t, cfg.Response.AssumeDelivered)
}

func TestReplayConfigFromFile(t *testing.T) {
	origConfig, origBPF := configFile, replayBPF
	defer func() { configFile, replayBPF = origConfig, origBPF }()

	dir := t.TempDir()
	configFile = filepath.Join(dir, "config.yml")
	replayBPF = "tcp port 443"

	yml := `
strix:
  capture:
    type: afpacket
    device: eth0
  decode:
    tcp:
      checksums: false
`
	require.NoError(t, os.WriteFile(configFile, []byte(yml), 0644))

	cfg, err := replayConfig("traffic.pcap")
	require.NoError(t, err)

	// the capture section flips to the savefile regardless of the config
	require.Equal(t, "file", cfg.Capture.Type)
	require.Equal(t, "traffic.pcap", cfg.Capture.File)
	require.Equal(t, "tcp port 443", cfg.Capture.BPF)

	// everything else keeps the configured values
	require.False(t, cfg.Decode.TCP.Checksums)
}
