// Package core defines sentinel errors.
package core

import "errors"

var (
	// Transport decode errors
	ErrHeaderTooShort      = errors.New("strix: tcp segment shorter than 20 byte header")
	ErrInvalidOffset       = errors.New("strix: tcp data offset below minimum")
	ErrOffsetExceedsPacket = errors.New("strix: tcp data offset exceeds captured length")
	ErrBadChecksum         = errors.New("strix: tcp checksum mismatch")
	ErrOptionsOverflow     = errors.New("strix: tcp options region exceeds cap")

	// Codec registry errors
	ErrProtocolClaimed = errors.New("strix: protocol already claimed by a codec")
	ErrCodecNotFound   = errors.New("strix: no codec registered for protocol")

	// Encoder errors
	ErrNoTemplate      = errors.New("strix: response template segment too short")
	ErrUnknownResponse = errors.New("strix: unknown response type")

	// Engine errors
	ErrEngineStopped = errors.New("strix: engine stopped")
	ErrQueueFull     = errors.New("strix: dispatch queue full")

	// Configuration errors
	ErrConfigInvalid = errors.New("strix: invalid configuration")
)
