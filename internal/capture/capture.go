// Package capture provides the packet sources feeding the decode engine.
package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/strix/internal/config"
)

// ErrTimeout reports that no frame arrived within the poll interval. Live
// readers treat it as a hint to check for cancellation and poll again.
var ErrTimeout = errors.New("capture: read timeout")

// Source delivers raw frames to the engine.
type Source interface {
	// Start opens the underlying handle. ReadPacket may only be called
	// after Start returns nil.
	Start(ctx context.Context) error

	// ReadPacket returns the next frame. It returns ErrTimeout when the
	// poll interval elapses without traffic and io.EOF when a finite
	// source is exhausted.
	ReadPacket() (data []byte, ci gopacket.CaptureInfo, err error)

	// LinkType reports the link layer the source produces.
	LinkType() layers.LinkType

	// Stop closes the handle.
	Stop() error
}

// Stats are cumulative kernel-side capture counters.
type Stats struct {
	Received uint64
	Dropped  uint64
}

// StatsProvider is implemented by sources that can report kernel counters.
type StatsProvider interface {
	Stats() (Stats, error)
}

// New builds a source from the capture section. Source-specific settings
// come from the options map, decoded with mapstructure by each constructor.
func New(cfg config.CaptureConfig) (Source, error) {
	switch cfg.Type {
	case "afpacket":
		return newAfpacketSource(cfg)
	case "file":
		return newFileSource(cfg)
	default:
		return nil, fmt.Errorf("capture: unknown source type %q", cfg.Type)
	}
}
