package capture

import (
	"context"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"firestige.xyz/strix/internal/config"
)

// fileSource replays frames from a libpcap savefile.
type fileSource struct {
	path   string
	filter string
	handle *pcap.Handle
}

func newFileSource(cfg config.CaptureConfig) (*fileSource, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("capture: file source requires a path")
	}
	return &fileSource{path: cfg.File, filter: cfg.BPF}, nil
}

func (s *fileSource) Start(ctx context.Context) error {
	handle, err := pcap.OpenOffline(s.path)
	if err != nil {
		return fmt.Errorf("capture: open savefile %s: %w", s.path, err)
	}
	if s.filter != "" {
		if err := handle.SetBPFFilter(s.filter); err != nil {
			handle.Close()
			return fmt.Errorf("capture: attach filter: %w", err)
		}
	}
	s.handle = handle
	return nil
}

// ReadPacket returns io.EOF once the savefile is exhausted.
func (s *fileSource) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	if s.handle == nil {
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("capture: file source not started")
	}
	return s.handle.ReadPacketData()
}

func (s *fileSource) LinkType() layers.LinkType {
	if s.handle == nil {
		return layers.LinkTypeEthernet
	}
	return s.handle.LinkType()
}

func (s *fileSource) Stop() error {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	return nil
}
