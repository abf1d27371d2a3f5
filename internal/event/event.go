// Package event defines the decoder anomaly taxonomy raised by transport
// codecs. Delivery is behind the Sink interface; raising an event never
// fails and never blocks decode.
package event

import (
	"fmt"

	"firestige.xyz/strix/internal/core"
)

// Code identifies one decoder anomaly.
type Code uint8

const (
	HeaderTooShort Code = iota
	InvalidOffset
	OffsetExceedsPacket
	OptionBadLength
	OptionTruncated
	OptionTTCPDetected
	OptionObsolete
	OptionExperimental
	OptionWindowScaleInvalid
	XmasAttack
	XmasAttackNmapVariant
	BadUrgentPointer
	SynWithFin
	SynWithRst
	MissingAckForEstablished
	NoSynAckRst
	LegacySynfloodSignature
	PortZero
	NapthaSignature
	SynToMulticast

	codeCount
)

var names = [codeCount]string{
	HeaderTooShort:           "header-too-short",
	InvalidOffset:            "invalid-offset",
	OffsetExceedsPacket:      "offset-exceeds-packet",
	OptionBadLength:          "option-bad-length",
	OptionTruncated:          "option-truncated",
	OptionTTCPDetected:       "option-ttcp-detected",
	OptionObsolete:           "option-obsolete",
	OptionExperimental:       "option-experimental",
	OptionWindowScaleInvalid: "option-window-scale-invalid",
	XmasAttack:               "xmas-attack",
	XmasAttackNmapVariant:    "xmas-attack-nmap-variant",
	BadUrgentPointer:         "bad-urgent-pointer",
	SynWithFin:               "syn-with-fin",
	SynWithRst:               "syn-with-rst",
	MissingAckForEstablished: "missing-ack-for-established",
	NoSynAckRst:              "no-syn-ack-or-rst",
	LegacySynfloodSignature:  "legacy-synflood-signature",
	PortZero:                 "port-zero",
	NapthaSignature:          "naptha-signature",
	SynToMulticast:           "syn-to-multicast",
}

// Rule messages shown to operators, one per code.
var messages = [codeCount]string{
	HeaderTooShort:           "(tcp) TCP packet length is smaller than 20 bytes",
	InvalidOffset:            "(tcp) TCP data offset is less than 5",
	OffsetExceedsPacket:      "(tcp) TCP header length exceeds packet length",
	OptionBadLength:          "(tcp) TCP options found with bad lengths",
	OptionTruncated:          "(tcp) truncated TCP options",
	OptionTTCPDetected:       "(tcp) T/TCP detected",
	OptionObsolete:           "(tcp) obsolete TCP options found",
	OptionExperimental:       "(tcp) experimental TCP options found",
	OptionWindowScaleInvalid: "(tcp) TCP window scale option found with scale > 14",
	XmasAttack:               "(tcp) XMAS attack detected",
	XmasAttackNmapVariant:    "(tcp) Nmap XMAS attack detected",
	BadUrgentPointer:         "(tcp) TCP urgent pointer exceeds payload length or no payload",
	SynWithFin:               "(tcp) TCP SYN with FIN",
	SynWithRst:               "(tcp) TCP SYN with RST",
	MissingAckForEstablished: "(tcp) TCP PDU missing ack for established session",
	NoSynAckRst:              "(tcp) TCP has no SYN, ACK, or RST",
	LegacySynfloodSignature:  "(tcp) DDOS shaft synflood",
	PortZero:                 "(tcp) BAD-TRAFFIC TCP port 0 traffic",
	NapthaSignature:          "(decode) DOS NAPTHA vulnerability detected",
	SynToMulticast:           "(decode) bad traffic SYN to multicast address",
}

// String returns the stable kebab-case name used in logs and metric labels.
func (c Code) String() string {
	if c >= codeCount {
		return fmt.Sprintf("unknown-event-%d", uint8(c))
	}
	return names[c]
}

// Message returns the operator-facing rule text.
func (c Code) Message() string {
	if c >= codeCount {
		return "unknown decoder event"
	}
	return messages[c]
}

// Codes returns every defined code in declaration order.
func Codes() []Code {
	all := make([]Code, codeCount)
	for i := range all {
		all[i] = Code(i)
	}
	return all
}

// Sink receives decoder events. Implementations must be safe for concurrent
// use from every decode worker.
type Sink interface {
	Raise(p *core.Packet, c Code)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(p *core.Packet, c Code)

// Raise calls f.
func (f SinkFunc) Raise(p *core.Packet, c Code) { f(p, c) }

// Nop discards every event.
var Nop Sink = SinkFunc(func(*core.Packet, Code) {})

// Multi fans each event out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(p *core.Packet, c Code) {
		for _, s := range sinks {
			s.Raise(p, c)
		}
	})
}
