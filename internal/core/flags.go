// Package core defines core types.
package core

// PacketFlags carries per-packet state bits set by outer layers and verdicts.
type PacketFlags uint16

const (
	// FlagUnsureEncap marks a packet whose encapsulation was guessed
	// (Teredo/ESP style tunnels). Decode failures stay silent for these.
	FlagUnsureEncap PacketFlags = 1 << iota
	// FlagCooked marks a packet synthesized by the engine rather than read
	// off the wire.
	FlagCooked
	// FlagRebuiltFrag marks a packet reassembled from IP fragments.
	FlagRebuiltFrag
	// FlagDropRequested asks the inline deployment to drop the packet. It is
	// a verdict request, never a decode failure.
	FlagDropRequested
)

// Has reports whether every bit in f is set.
func (pf PacketFlags) Has(f PacketFlags) bool {
	return pf&f == f
}

// ErrorFlags records non-fatal decode defects on an otherwise usable packet.
type ErrorFlags uint8

const (
	// ErrFlagTCPChecksum is set when TCP checksum validation failed.
	ErrFlagTCPChecksum ErrorFlags = 1 << iota
)

// Has reports whether every bit in f is set.
func (ef ErrorFlags) Has(f ErrorFlags) bool {
	return ef&f == f
}

// ProtoBits records which protocols were successfully decoded.
type ProtoBits uint16

const (
	ProtoBitIP4 ProtoBits = 1 << iota
	ProtoBitIP6
	ProtoBitTCP
)

// Has reports whether every bit in f is set.
func (pb ProtoBits) Has(f ProtoBits) bool {
	return pb&f == f
}
