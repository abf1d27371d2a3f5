// Package checksum implements the RFC 1071 internet checksum over transport
// segments and their IPv4/IPv6 pseudo-headers.
package checksum

import (
	"encoding/binary"
	"net/netip"
)

// Sum returns the unfolded ones'-complement running sum of b. An odd
// trailing byte is padded as the high octet of a final 16-bit word.
func Sum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if len(b)&1 != 0 {
		sum += uint32(b[len(b)-1]) << 8
	}
	return sum
}

// PseudoSum returns the unfolded sum of the transport pseudo-header: source
// and destination addresses, a zero byte, the protocol number and the
// segment length. IPv4 addresses contribute 4 bytes each, IPv6 16.
func PseudoSum(proto uint8, src, dst netip.Addr, length uint16) uint32 {
	var sum uint32
	if src.Is4() {
		s, d := src.As4(), dst.As4()
		sum += uint32(binary.BigEndian.Uint16(s[0:2])) + uint32(binary.BigEndian.Uint16(s[2:4]))
		sum += uint32(binary.BigEndian.Uint16(d[0:2])) + uint32(binary.BigEndian.Uint16(d[2:4]))
	} else {
		s, d := src.As16(), dst.As16()
		for i := 0; i < 16; i += 2 {
			sum += uint32(binary.BigEndian.Uint16(s[i : i+2]))
			sum += uint32(binary.BigEndian.Uint16(d[i : i+2]))
		}
	}
	sum += uint32(proto)
	sum += uint32(length)
	return sum
}

// Fold reduces an unfolded sum to the final 16-bit ones'-complement value.
func Fold(sum uint32) uint16 {
	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}

// TCP computes the checksum of a TCP segment against its pseudo-header.
// Run over a segment with its checksum field in place it yields 0 when the
// segment is intact; with the field zeroed it yields the value to store.
func TCP(segment []byte, proto uint8, src, dst netip.Addr) uint16 {
	sum := PseudoSum(proto, src, dst, uint16(len(segment)))
	sum += Sum(segment)
	return Fold(sum)
}
