package engine

import (
	"errors"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/prometheus/client_golang/prometheus"

	"firestige.xyz/strix/internal/codec"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/dispatch"
	"firestige.xyz/strix/internal/metrics"
)

// worker owns one reusable packet and one link-to-IP parser. The dispatcher
// guarantees a worker only ever runs on its own partition goroutine, so none
// of this state is shared.
type worker struct {
	id       int
	registry *codec.Registry
	packet   core.Packet

	eth    layers.Ethernet
	dot1q  layers.Dot1Q
	ip4    layers.IPv4
	ip6    layers.IPv6
	parser *gopacket.DecodingLayerParser
	types  []gopacket.LayerType

	// Hot-path metric handles resolved once per registered protocol.
	pktCounters  [256]prometheus.Counter
	csumCounters [256]prometheus.Counter
	latency      [256]prometheus.Observer

	nDecoded   int64
	nDecodeErr int64
	nParseErr  int64
	nIgnored   int64
	nChecksum  int64
	nDropReq   int64
}

func newWorker(id int, registry *codec.Registry) *worker {
	w := &worker{id: id, registry: registry}

	w.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&w.eth, &w.dot1q, &w.ip4, &w.ip6,
	)
	// Stop quietly at the transport layer; the codec registry takes over
	// from there.
	w.parser.IgnoreUnsupported = true

	for _, c := range registry.Codecs() {
		for _, proto := range c.Protocols() {
			w.pktCounters[proto] = metrics.DecodePacketsTotal.WithLabelValues(c.Name())
			w.csumCounters[proto] = metrics.ChecksumFailuresTotal.WithLabelValues(c.Name())
			w.latency[proto] = metrics.DecodeLatencySeconds.WithLabelValues(c.Name())
		}
	}
	return w
}

// process decodes one frame into the worker's packet. It never returns an
// error for malformed traffic; malformed frames are counted and skipped.
func (w *worker) process(f *dispatch.Frame) error {
	w.packet.Reset()
	w.packet.Timestamp = f.Info.Timestamp

	w.types = w.types[:0]
	if err := w.parser.DecodeLayers(f.Data, &w.types); err != nil {
		atomic.AddInt64(&w.nParseErr, 1)
		return nil
	}

	var (
		seg   []byte
		proto uint8
	)
	for _, lt := range w.types {
		switch lt {
		case layers.LayerTypeIPv4:
			// Fragments carry partial transport headers; reassembly
			// belongs to an outer collaborator.
			if w.ip4.FragOffset != 0 || w.ip4.Flags&layers.IPv4MoreFragments != 0 {
				atomic.AddInt64(&w.nIgnored, 1)
				return nil
			}
			src, _ := netip.AddrFromSlice(w.ip4.SrcIP)
			dst, _ := netip.AddrFromSlice(w.ip4.DstIP)
			w.packet.IP = core.IPContext{
				Version: 4,
				SrcIP:   src,
				DstIP:   dst,
				Proto:   uint8(w.ip4.Protocol),
				ID:      w.ip4.Id,
			}
			w.packet.ProtoBits |= core.ProtoBitIP4
			seg = w.ip4.Payload
			proto = uint8(w.ip4.Protocol)

		case layers.LayerTypeIPv6:
			src, _ := netip.AddrFromSlice(w.ip6.SrcIP)
			dst, _ := netip.AddrFromSlice(w.ip6.DstIP)
			w.packet.IP = core.IPContext{
				Version: 6,
				SrcIP:   src,
				DstIP:   dst,
				Proto:   uint8(w.ip6.NextHeader),
			}
			w.packet.ProtoBits |= core.ProtoBitIP6
			seg = w.ip6.Payload
			proto = uint8(w.ip6.NextHeader)
		}
	}

	if seg == nil {
		atomic.AddInt64(&w.nIgnored, 1)
		return nil
	}

	c, ok := w.registry.Lookup(proto)
	if !ok {
		atomic.AddInt64(&w.nIgnored, 1)
		return nil
	}

	// The transport layer doubles as the response template.
	w.packet.Layers = append(w.packet.Layers, core.Layer{Proto: proto, Bytes: seg})

	start := time.Now()
	_, err := c.Decode(seg, &w.packet)
	if obs := w.latency[proto]; obs != nil {
		obs.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		atomic.AddInt64(&w.nDecodeErr, 1)
		metrics.DecodeErrorsTotal.WithLabelValues(c.Name(), reasonLabel(err)).Inc()
		return nil
	}

	atomic.AddInt64(&w.nDecoded, 1)
	if ctr := w.pktCounters[proto]; ctr != nil {
		ctr.Inc()
	}
	if w.packet.ErrFlags.Has(core.ErrFlagTCPChecksum) {
		atomic.AddInt64(&w.nChecksum, 1)
		if ctr := w.csumCounters[proto]; ctr != nil {
			ctr.Inc()
		}
	}
	if w.packet.Flags.Has(core.FlagDropRequested) {
		atomic.AddInt64(&w.nDropReq, 1)
		metrics.DropRequestsTotal.Inc()
	}
	return nil
}

// reasonLabel maps decode errors onto the low-cardinality metric label.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, core.ErrHeaderTooShort):
		return "header-too-short"
	case errors.Is(err, core.ErrInvalidOffset):
		return "invalid-offset"
	case errors.Is(err, core.ErrOffsetExceedsPacket):
		return "offset-exceeds-packet"
	case errors.Is(err, core.ErrBadChecksum):
		return "bad-checksum"
	case errors.Is(err, core.ErrOptionsOverflow):
		return "options-overflow"
	default:
		return "other"
	}
}
