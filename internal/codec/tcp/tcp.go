// Package tcp implements the TCP transport codec: segment decoding with
// protocol anomaly events, checksum verification against the IP
// pseudo-header, and forging of RST/FIN/PUSH response segments for active
// response.
package tcp

import (
	"fmt"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/event"
	"firestige.xyz/strix/internal/ipset"
)

// Name is the codec's registry name.
const Name = "tcp"

// DefaultMulticastGroups is the destination set used for SYN-to-multicast
// detection when the config leaves it empty.
const DefaultMulticastGroups = "[232.0.0.0/8,233.0.0.0/8,239.0.0.0/8]"

// Config controls checksum policy and response sequence semantics.
type Config struct {
	// ValidateChecksums verifies each segment against its pseudo-header.
	ValidateChecksums bool `mapstructure:"checksums"`

	// DropBadChecksums requests a drop verdict when a checksum fails.
	// Only honored inline.
	DropBadChecksums bool `mapstructure:"drop_bad_checksums"`

	// Inline marks an inline deployment rather than a passive tap.
	Inline bool `mapstructure:"inline"`

	// PayloadDelivered advances the forward sequence number past the
	// template's payload when forging responses, for deployments where
	// the original segment reached its destination.
	PayloadDelivered bool `mapstructure:"payload_delivered"`

	// MulticastGroups is the CIDR list matched by SYN-to-multicast
	// detection, in "[a/8,b/8]" form.
	MulticastGroups string `mapstructure:"multicast_groups"`
}

// Codec decodes and forges TCP segments. A single instance serves every
// worker; calls carry all per-packet state.
type Codec struct {
	cfg               Config
	sink              event.Sink
	synToMulticastDst *ipset.Set
}

// New parses the multicast detection set and returns a ready codec. A bad
// multicast literal is a startup failure.
func New(cfg Config, sink event.Sink) (*Codec, error) {
	if cfg.MulticastGroups == "" {
		cfg.MulticastGroups = DefaultMulticastGroups
	}
	if sink == nil {
		sink = event.Nop
	}
	set, err := ipset.Parse(cfg.MulticastGroups)
	if err != nil {
		return nil, fmt.Errorf("tcp codec: multicast groups: %w", err)
	}
	return &Codec{cfg: cfg, sink: sink, synToMulticastDst: set}, nil
}

// Name implements codec.Codec.
func (c *Codec) Name() string { return Name }

// Protocols implements codec.Codec.
func (c *Codec) Protocols() []uint8 { return []uint8{core.ProtoTCP} }

// Shutdown drops the multicast detection set. Call only after every worker
// has stopped.
func (c *Codec) Shutdown() { c.synToMulticastDst = nil }

func (c *Codec) raise(p *core.Packet, code event.Code) { c.sink.Raise(p, code) }
