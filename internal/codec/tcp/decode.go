package tcp

import (
	"encoding/binary"

	"firestige.xyz/strix/internal/checksum"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/event"
)

// Sequence numbers with their own rule history, compared in host order.
const (
	napthaSeq   uint32 = 6060842
	napthaIPID  uint16 = 413
	synfloodSeq uint32 = 674711609
)

// flag bits left when the reserved ECN bits are masked off
const flagMaskNoReserved = core.TCPFlagFIN | core.TCPFlagSYN | core.TCPFlagRST |
	core.TCPFlagPSH | core.TCPFlagACK | core.TCPFlagURG

// Decode implements codec.Codec. raw spans the TCP header through the end of
// the captured packet; p.IP must already hold the owning IP context. The
// return value is the header length consumed, with payload exposed through
// p.Data.
func (c *Codec) Decode(raw []byte, p *core.Packet) (int, error) {
	if len(raw) < core.TCPHeaderLen {
		c.raise(p, event.HeaderTooShort)
		p.TCP = nil
		return 0, core.ErrHeaderTooShort
	}

	view := p.SetTCPHeader(parseHeader(raw))

	hdrLen := view.HeaderLen()
	if hdrLen < core.TCPHeaderLen {
		c.raise(p, event.InvalidOffset)
		p.TCP = nil
		return 0, core.ErrInvalidOffset
	}
	if hdrLen > len(raw) {
		c.raise(p, event.OffsetExceedsPacket)
		p.TCP = nil
		return 0, core.ErrOffsetExceedsPacket
	}

	if c.cfg.ValidateChecksums {
		if checksum.TCP(raw, p.IP.Proto, p.IP.SrcIP, p.IP.DstIP) != 0 {
			if p.Flags.Has(core.FlagUnsureEncap) {
				// tunneled payloads routinely fail the outer
				// pseudo-header, bail without an event
				p.TCP = nil
				return 0, core.ErrBadChecksum
			}
			p.ErrFlags |= core.ErrFlagTCPChecksum
			if c.cfg.Inline && c.cfg.DropBadChecksums {
				p.Flags |= core.FlagDropRequested
			}
		}
	}

	flags := view.Flags
	if view.FlagsSet(core.TCPFlagFIN | core.TCPFlagPSH | core.TCPFlagURG) {
		if view.AnyFlags(core.TCPFlagSYN | core.TCPFlagACK | core.TCPFlagRST) {
			c.raise(p, event.XmasAttack)
		} else {
			c.raise(p, event.XmasAttackNmapVariant)
		}
		// keep decoding, the segment may still carry valid data
	}

	if flags&core.TCPFlagSYN != 0 {
		if flags == core.TCPFlagSYN && view.Seq == napthaSeq && p.IP.ID == napthaIPID {
			c.raise(p, event.NapthaSignature)
		}
		if c.synToMulticastDst.Contains(p.IP.DstIP) {
			c.raise(p, event.SynToMulticast)
		}
		if flags&core.TCPFlagRST != 0 {
			c.raise(p, event.SynWithRst)
		}
		if flags&core.TCPFlagFIN != 0 {
			c.raise(p, event.SynWithFin)
		}
	} else if flags&(core.TCPFlagACK|core.TCPFlagRST) == 0 {
		c.raise(p, event.NoSynAckRst)
	}

	if view.AnyFlags(core.TCPFlagFIN|core.TCPFlagPSH|core.TCPFlagURG) &&
		flags&core.TCPFlagACK == 0 {
		c.raise(p, event.MissingAckForEstablished)
	}

	p.SrcPort = view.SrcPort
	p.DstPort = view.DstPort

	p.OptionCount = 0
	if hdrLen > core.TCPHeaderLen {
		c.walkOptions(raw[core.TCPHeaderLen:hdrLen], p)
		if p.TCP == nil {
			return 0, core.ErrOptionsOverflow
		}
	}

	p.Data = raw[hdrLen:]

	if flags&core.TCPFlagURG != 0 &&
		(len(p.Data) == 0 || int(view.UrgPtr) > len(p.Data)) {
		c.raise(p, event.BadUrgentPointer)
	}

	p.ProtoBits |= core.ProtoBitTCP

	if flags&flagMaskNoReserved == core.TCPFlagSYN && view.Seq == synfloodSeq {
		c.raise(p, event.LegacySynfloodSignature)
	}
	if p.SrcPort == 0 || p.DstPort == 0 {
		c.raise(p, event.PortZero)
	}

	return hdrLen, nil
}

// parseHeader reads the fixed 20 byte header into host order fields.
func parseHeader(b []byte) core.TCPHeader {
	return core.TCPHeader{
		SrcPort:  binary.BigEndian.Uint16(b[0:2]),
		DstPort:  binary.BigEndian.Uint16(b[2:4]),
		Seq:      binary.BigEndian.Uint32(b[4:8]),
		Ack:      binary.BigEndian.Uint32(b[8:12]),
		OffRes:   b[12],
		Flags:    b[13],
		Window:   binary.BigEndian.Uint16(b[14:16]),
		Checksum: binary.BigEndian.Uint16(b[16:18]),
		UrgPtr:   binary.BigEndian.Uint16(b[18:20]),
	}
}
