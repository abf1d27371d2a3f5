package tcp

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/strix/internal/checksum"
	"firestige.xyz/strix/internal/codec"
	"firestige.xyz/strix/internal/core"
)

// responseWindow is advertised on forged PUSH segments so the peer keeps
// sending into the sweep.
const responseWindow = 65535

// Encode implements codec.Codec. It forges a RST, FIN or PUSH segment from a
// captured template segment. Responses are stateless, so sequence and ack
// numbers are derived from the template to land inside the peer's window;
// RFC 793 validates resets against the SEQ field except in SYN-SENT, where
// the ACK must cover the SYN.
func (c *Codec) Encode(template []byte, d *codec.EncodeDirective, ip *core.IPContext) ([]byte, error) {
	if len(template) < core.TCPHeaderLen {
		return nil, core.ErrNoTemplate
	}
	hi := parseHeader(template)

	var flags uint8
	var window uint16
	attachPayload := false
	switch d.Type {
	case codec.ResponseRST:
		flags = core.TCPFlagRST | core.TCPFlagACK
	case codec.ResponseFIN:
		flags = core.TCPFlagACK | core.TCPFlagFIN
		attachPayload = true
	case codec.ResponsePUSH:
		flags = core.TCPFlagACK | core.TCPFlagPSH
		window = responseWindow
		attachPayload = true
	default:
		return nil, core.ErrUnknownResponse
	}

	var payload []byte
	if attachPayload {
		payload = d.Payload
	}

	out := make([]byte, core.TCPHeaderLen+len(payload))
	copy(out[core.TCPHeaderLen:], payload)

	// a SYN consumes one sequence number on top of the data
	var ctl uint32
	if hi.Flags&core.TCPFlagSYN != 0 {
		ctl = 1
	}
	var dsize uint32
	if n := len(template) - hi.HeaderLen(); n > 0 {
		dsize = uint32(n)
	}

	var sport, dport uint16
	var seq, ack uint32
	if d.Direction == codec.Forward {
		sport, dport = hi.SrcPort, hi.DstPort

		// the forged sequence depends on whether the template's data
		// reached its destination
		if c.cfg.PayloadDelivered {
			seq = hi.Seq + dsize + ctl
		} else {
			seq = hi.Seq
		}
		ack = hi.Ack
	} else {
		sport, dport = hi.DstPort, hi.SrcPort
		seq = hi.Ack
		ack = hi.Seq + dsize + ctl
	}
	seq += d.SeqAdjust

	binary.BigEndian.PutUint16(out[0:2], sport)
	binary.BigEndian.PutUint16(out[2:4], dport)
	binary.BigEndian.PutUint32(out[4:8], seq)
	binary.BigEndian.PutUint32(out[8:12], ack)
	out[12] = (core.TCPHeaderLen >> 2) << 4
	out[13] = flags
	binary.BigEndian.PutUint16(out[14:16], window)
	// checksum and urgent pointer stay zero while the sum is computed

	sum := checksum.TCP(out, core.ProtoTCP, ip.SrcIP, ip.DstIP)
	binary.BigEndian.PutUint16(out[16:18], sum)

	return out, nil
}

// Update implements codec.Codec. It refreshes the total length and checksum
// of a rewritten packet's TCP layer. Cooked packets keep their checksum
// unless they were rebuilt from fragments, since that is what the endpoint
// stack saw.
func (c *Codec) Update(p *core.Packet, lyr *core.Layer, payloadLen int) (int, error) {
	if len(lyr.Bytes) < core.TCPHeaderLen {
		return 0, core.ErrHeaderTooShort
	}
	hdrLen := int(lyr.Bytes[12]>>4) << 2
	total := hdrLen + payloadLen
	if total > len(lyr.Bytes) {
		return 0, core.ErrOffsetExceedsPacket
	}

	if !p.Flags.Has(core.FlagCooked) || p.Flags.Has(core.FlagRebuiltFrag) {
		lyr.Bytes[16] = 0
		lyr.Bytes[17] = 0
		sum := checksum.TCP(lyr.Bytes[:total], core.ProtoTCP, p.IP.SrcIP, p.IP.DstIP)
		binary.BigEndian.PutUint16(lyr.Bytes[16:18], sum)
	}
	return total, nil
}

// Format implements codec.Codec. The clone's layer idx becomes its TCP view;
// a reverse clone takes the template's ports swapped.
func (c *Codec) Format(dir codec.Direction, tmpl, clone *core.Packet, idx int) error {
	if idx < 0 || idx >= len(clone.Layers) || idx >= len(tmpl.Layers) {
		return fmt.Errorf("tcp format: no layer %d", idx)
	}
	cb := clone.Layers[idx].Bytes
	tb := tmpl.Layers[idx].Bytes
	if len(cb) < core.TCPHeaderLen || len(tb) < core.TCPHeaderLen {
		return core.ErrHeaderTooShort
	}

	if dir == codec.Reverse {
		copy(cb[0:2], tb[2:4])
		copy(cb[2:4], tb[0:2])
	}

	view := clone.SetTCPHeader(parseHeader(cb))
	clone.SrcPort = view.SrcPort
	clone.DstPort = view.DstPort
	clone.ProtoBits |= core.ProtoBitTCP
	return nil
}
