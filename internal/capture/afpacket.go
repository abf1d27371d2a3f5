package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"
	"github.com/mitchellh/mapstructure"

	"firestige.xyz/strix/internal/config"
)

// afpacketOptions are the source-specific knobs from the capture options map.
type afpacketOptions struct {
	BufferMB      int    `mapstructure:"buffer_mb"`       // Ring budget (default 64)
	PollTimeoutMS int    `mapstructure:"poll_timeout_ms"` // Poll interval (default 100)
	FanoutID      uint16 `mapstructure:"fanout_id"`       // 0 = no PACKET_FANOUT
}

// afpacketSource reads frames from a TPacket v3 ring on a live interface.
type afpacketSource struct {
	device    string
	snapLen   int
	filter    string
	frameSize int
	blockSize int
	numBlocks int
	pollEvery time.Duration
	fanoutID  uint16

	handle *afpacket.TPacket
}

// newAfpacketSource validates geometry without touching the interface, so
// construction works unprivileged. Start opens the socket.
func newAfpacketSource(cfg config.CaptureConfig) (*afpacketSource, error) {
	opts := afpacketOptions{BufferMB: 64, PollTimeoutMS: 100}
	if cfg.Options != nil {
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("capture: afpacket options: %w", err)
		}
	}

	frameSize, blockSize, numBlocks, err := ringGeometry(opts.BufferMB, cfg.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("capture: afpacket ring: %w", err)
	}

	return &afpacketSource{
		device:    cfg.Device,
		snapLen:   cfg.SnapLen,
		filter:    cfg.BPF,
		frameSize: frameSize,
		blockSize: blockSize,
		numBlocks: numBlocks,
		pollEvery: time.Duration(opts.PollTimeoutMS) * time.Millisecond,
		fanoutID:  opts.FanoutID,
	}, nil
}

func (s *afpacketSource) Start(ctx context.Context) error {
	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(s.device),
		afpacket.OptFrameSize(s.frameSize),
		afpacket.OptBlockSize(s.blockSize),
		afpacket.OptNumBlocks(s.numBlocks),
		afpacket.OptPollTimeout(s.pollEvery),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return fmt.Errorf("capture: open %s: %w", s.device, err)
	}

	if s.fanoutID > 0 {
		if err := tp.SetFanout(afpacket.FanoutHashWithDefrag, s.fanoutID); err != nil {
			tp.Close()
			return fmt.Errorf("capture: fanout group %d: %w", s.fanoutID, err)
		}
	}

	if s.filter != "" {
		raw, err := CompileBPF(s.filter, s.snapLen)
		if err != nil {
			tp.Close()
			return err
		}
		if err := tp.SetBPF(raw); err != nil {
			tp.Close()
			return fmt.Errorf("capture: attach filter: %w", err)
		}
	}

	s.handle = tp
	return nil
}

func (s *afpacketSource) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.handle.ReadPacketData()
	if errors.Is(err, afpacket.ErrTimeout) {
		return nil, ci, ErrTimeout
	}
	return data, ci, err
}

func (s *afpacketSource) LinkType() layers.LinkType {
	return layers.LinkTypeEthernet
}

// Stats reports the kernel's cumulative receive and drop counters.
func (s *afpacketSource) Stats() (Stats, error) {
	if s.handle == nil {
		return Stats{}, nil
	}
	_, v3, err := s.handle.SocketStats()
	if err != nil {
		return Stats{}, fmt.Errorf("capture: socket stats: %w", err)
	}
	return Stats{Received: uint64(v3.Packets()), Dropped: uint64(v3.Drops())}, nil
}

func (s *afpacketSource) Stop() error {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	return nil
}
