// Package codec defines the transport codec contract and the protocol
// dispatch table used on the decode hot path.
package codec

import (
	"firestige.xyz/strix/internal/core"
)

// Direction selects which way a forged response travels relative to the
// template packet.
type Direction uint8

const (
	// Forward keeps the template's orientation.
	Forward Direction = iota
	// Reverse answers back toward the template's sender.
	Reverse
)

// ResponseType selects the segment the encoder forges.
type ResponseType uint8

const (
	// ResponseRST tears the session down.
	ResponseRST ResponseType = iota
	// ResponseFIN closes with an optional final payload.
	ResponseFIN
	// ResponsePUSH delivers a payload mid-session.
	ResponsePUSH
)

// EncodeDirective describes the response segment to forge. Payload is only
// attached for FIN and PUSH responses. SeqAdjust is added to the computed
// sequence number modulo 2^32; zero leaves it untouched.
type EncodeDirective struct {
	Type      ResponseType
	Direction Direction
	Payload   []byte
	SeqAdjust uint32
}

// Codec decodes one transport protocol and forges response segments for it.
// Implementations are stateless per call; all per-packet mutation happens on
// the caller-owned Packet.
type Codec interface {
	// Name returns the short protocol name used in logs and metrics.
	Name() string

	// Protocols lists the IP protocol numbers the codec claims.
	Protocols() []uint8

	// Decode parses raw (the transport header through the end of capture)
	// into p, whose IP context is already populated. It returns the header
	// length including options. On a fatal failure the packet's header view
	// is left nil.
	Decode(raw []byte, p *core.Packet) (int, error)

	// Encode forges a response segment using a captured segment as the
	// template. The IP context supplies pseudo-header addresses; the sum is
	// order independent, so template orientation serves both directions.
	Encode(template []byte, directive *EncodeDirective, ip *core.IPContext) ([]byte, error)

	// Update recomputes a rebuilt layer's total length and checksum after
	// its payload region changed. It returns the new total length.
	Update(p *core.Packet, lyr *core.Layer, payloadLen int) (int, error)

	// Format prepares layer idx of a cloned packet for response duty,
	// swapping ports against the template when the direction is Reverse.
	Format(dir Direction, tmpl, clone *core.Packet, idx int) error
}

// Shutdowner is implemented by codecs holding process-wide state that must
// be released after all workers have stopped.
type Shutdowner interface {
	Shutdown()
}
