// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// TCP flag bits, RFC 793 plus the two ECN bits.
const (
	TCPFlagFIN uint8 = 0x01
	TCPFlagSYN uint8 = 0x02
	TCPFlagRST uint8 = 0x04
	TCPFlagPSH uint8 = 0x08
	TCPFlagACK uint8 = 0x10
	TCPFlagURG uint8 = 0x20
	TCPFlagECE uint8 = 0x40
	TCPFlagCWR uint8 = 0x80
)

const (
	// TCPHeaderLen is the fixed header size without options.
	TCPHeaderLen = 20
	// TCPMaxOptions caps both the options region (15*4-20 bytes) and the
	// number of option records a packet can hold.
	TCPMaxOptions = 40
)

// ProtoTCP is the IP next-protocol number for TCP.
const ProtoTCP uint8 = 6

// IPContext carries what the IP layer hands to transport codecs.
type IPContext struct {
	Version uint8 // 4 or 6
	SrcIP   netip.Addr
	DstIP   netip.Addr
	Proto   uint8  // next-protocol id, TCP=6
	ID      uint16 // IPv4 identification, 0 for IPv6
}

// TCPHeader is a parsed, read-only view of the fixed 20-byte TCP header.
type TCPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Seq      uint32
	Ack      uint32
	OffRes   uint8 // data offset in the high 4 bits, reserved bits below
	Flags    uint8
	Window   uint16
	Checksum uint16
	UrgPtr   uint16
}

// HeaderLen returns the header length in bytes including options.
func (h *TCPHeader) HeaderLen() int {
	return int(h.OffRes>>4) << 2
}

// FlagsSet reports whether every bit in f is set.
func (h *TCPHeader) FlagsSet(f uint8) bool {
	return h.Flags&f == f
}

// AnyFlags reports whether at least one bit in f is set.
func (h *TCPHeader) AnyFlags(f uint8) bool {
	return h.Flags&f != 0
}

// TCPOption is one decoded option record. Len is the declared option length
// minus the two-byte code/length prefix; Data borrows from the segment and
// is nil when the option carries no payload.
type TCPOption struct {
	Code uint8
	Len  uint8
	Data []byte
}
