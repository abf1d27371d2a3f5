// Package core defines core data structures with zero external dependencies.
package core

import (
	"time"
)

// RawPacket is captured from the network interface, zero-copy reference to ring buffer.
type RawPacket struct {
	Data           []byte    // Raw frame data, zero-copy slice
	Timestamp      time.Time // Capture timestamp (kernel timestamp preferred)
	CaptureLen     uint32    // Actual captured length
	OrigLen        uint32    // Original frame length
	InterfaceIndex int       // Network interface index
}

// Layer records one decoded protocol layer. Bytes runs from the first byte of
// the layer's header to the end of the packet, so a checksum spanning header
// and payload stays a single slice.
type Layer struct {
	Proto uint8
	Bytes []byte
}

// Packet is the per-packet decode state handed down the codec chain. All
// views borrow from the capture buffer; codecs never copy segment bytes.
// Each worker owns exactly one Packet and resets it between frames.
type Packet struct {
	Timestamp time.Time

	IP IPContext

	// TCP is nil until the TCP codec succeeds and is cleared again when a
	// segment turns out to be corrupt.
	TCP *TCPHeader

	// Options is fixed-capacity scratch. Only the first OptionCount records
	// are valid; stale entries past the count are never read.
	Options     [TCPMaxOptions]TCPOption
	OptionCount int

	// Host-order ports, valid once TCP is set.
	SrcPort uint16
	DstPort uint16

	// Data is the transport payload view.
	Data []byte

	Flags     PacketFlags
	ErrFlags  ErrorFlags
	ProtoBits ProtoBits

	// Layers is populated by the engine for packets that may be used as
	// response templates.
	Layers []Layer

	tcpHdr TCPHeader
}

// SetTCPHeader stores h inside the packet and points the TCP view at it, so
// decoding does not allocate per packet.
func (p *Packet) SetTCPHeader(h TCPHeader) *TCPHeader {
	p.tcpHdr = h
	p.TCP = &p.tcpHdr
	return p.TCP
}

// Reset clears decode state so the Packet can take the next frame. The
// options array is left as-is; OptionCount guards it.
func (p *Packet) Reset() {
	p.Timestamp = time.Time{}
	p.IP = IPContext{}
	p.TCP = nil
	p.OptionCount = 0
	p.SrcPort = 0
	p.DstPort = 0
	p.Data = nil
	p.Flags = 0
	p.ErrFlags = 0
	p.ProtoBits = 0
	p.Layers = p.Layers[:0]
}
