package tcp

import (
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/event"
)

// TCP option kinds, IANA assignments.
const (
	OptEOL         uint8 = 0
	OptNOP         uint8 = 1
	OptMaxSeg      uint8 = 2
	OptWScale      uint8 = 3
	OptSackOK      uint8 = 4
	OptSack        uint8 = 5
	OptEcho        uint8 = 6
	OptEchoReply   uint8 = 7
	OptTimestamp   uint8 = 8
	OptPartialPerm uint8 = 9
	OptPartialSvc  uint8 = 10
	OptCC          uint8 = 11
	OptCCNew       uint8 = 12
	OptCCEcho      uint8 = 13
	OptAltCsum     uint8 = 14
	OptSkeeter     uint8 = 16
	OptBubba       uint8 = 17
	OptTrailerCsum uint8 = 18
	OptMD5Sig      uint8 = 19
	OptSCPS        uint8 = 20
	OptSelNegAck   uint8 = 21
	OptRecordBound uint8 = 22
	OptCorruption  uint8 = 23
	OptSnap        uint8 = 24
	OptUnassigned  uint8 = 25
	OptAuth        uint8 = 29
)

// Expected total lengths for fixed size options. lenVariable hands control
// to the wire length byte.
const (
	lenMaxSeg      = 4
	lenWScale      = 3
	lenSackOK      = 2
	lenEcho        = 6
	lenTimestamp   = 10
	lenCC          = 6
	lenTrailerCsum = 3
	lenMD5Sig      = 18

	lenVariable = -1
)

type optStatus int8

const (
	optOK     optStatus = 0
	optTrunc  optStatus = -1
	optBadLen optStatus = -2
)

// maxWindowScale is the largest shift RFC 7323 permits.
const maxWindowScale = 14

// walkOptions decodes the options region into p's fixed option array. The
// region is already bounded by the data offset, so a span past the 40 byte
// cap means memory corruption; it clears the header view and gives up.
//
// A malformed option raises one bad-length or truncated event and stops the
// walk, keeping the records in front of it the way BSD and Linux accept the
// good ones. A clean walk raises at most one summary event for the whole
// region, preferring experimental codes over obsolete ones over T/TCP.
func (c *Codec) walkOptions(opts []byte, p *core.Packet) {
	if len(opts) > core.TCPMaxOptions {
		p.TCP = nil
		return
	}

	var (
		count        int
		done         bool
		experimental bool
		obsolete     bool
		ttcpEcho     bool
	)

	for i := 0; i < len(opts) && count < core.TCPMaxOptions && !done; {
		rec := &p.Options[count]
		rec.Code = opts[i]

		var skip int
		status := optOK

		switch opts[i] {
		case OptEOL:
			done = true
			fallthrough
		case OptNOP:
			rec.Len = 0
			rec.Data = nil
			skip = 1

		case OptMaxSeg:
			skip, status = validateOption(opts, i, lenMaxSeg, rec)
		case OptSackOK:
			skip, status = validateOption(opts, i, lenSackOK, rec)

		case OptWScale:
			skip, status = validateOption(opts, i, lenWScale, rec)
			if status == optOK && rec.Data[0] > maxWindowScale {
				c.raise(p, event.OptionWindowScaleInvalid)
			}

		case OptEcho, OptEchoReply:
			obsolete = true
			skip, status = validateOption(opts, i, lenEcho, rec)

		case OptMD5Sig:
			// RFC 5925 obsoletes TCP MD5 in favor of TCP-AO
			obsolete = true
			skip, status = validateOption(opts, i, lenMD5Sig, rec)

		case OptAuth:
			// RFC 5925 sets a four byte floor on the option length
			if i+1 < len(opts) && opts[i+1] < 4 {
				status = optBadLen
			} else {
				skip, status = validateOption(opts, i, lenVariable, rec)
			}

		case OptSack:
			skip, status = validateOption(opts, i, lenVariable, rec)
			if status == optOK && rec.Data == nil {
				status = optBadLen
			}

		case OptCCEcho:
			ttcpEcho = true
			fallthrough
		case OptCC, OptCCNew: // the T/TCP family shares one length
			skip, status = validateOption(opts, i, lenCC, rec)

		case OptTrailerCsum:
			experimental = true
			skip, status = validateOption(opts, i, lenTrailerCsum, rec)

		case OptTimestamp:
			skip, status = validateOption(opts, i, lenTimestamp, rec)

		case OptSkeeter, OptBubba, OptUnassigned:
			obsolete = true
			skip, status = validateOption(opts, i, lenVariable, rec)

		case OptSCPS, OptSelNegAck, OptRecordBound, OptCorruption,
			OptPartialPerm, OptPartialSvc, OptAltCsum, OptSnap:
			experimental = true
			skip, status = validateOption(opts, i, lenVariable, rec)

		default:
			// unassigned codes take the experimental bucket too
			experimental = true
			skip, status = validateOption(opts, i, lenVariable, rec)
		}

		if status != optOK {
			if status == optBadLen {
				c.raise(p, event.OptionBadLength)
			} else {
				c.raise(p, event.OptionTruncated)
			}
			p.OptionCount = count
			return
		}

		count++
		i += skip
	}

	p.OptionCount = count

	if experimental {
		c.raise(p, event.OptionExperimental)
	} else if obsolete {
		c.raise(p, event.OptionObsolete)
	} else if ttcpEcho {
		c.raise(p, event.OptionTTCPDetected)
	}
}

// validateOption checks one option's length byte against the region and the
// expected total length. On success it fills rec and returns how many bytes
// the option spans on the wire.
func validateOption(opts []byte, i, expected int, rec *core.TCPOption) (int, optStatus) {
	if i+1 >= len(opts) {
		// the length byte itself is missing
		return 0, optTrunc
	}
	wireLen := int(opts[i+1])

	switch {
	case wireLen == 0 || expected == 0 || expected == 1:
		return 0, optBadLen
	case expected > 1:
		if i+expected > len(opts) {
			return 0, optTrunc
		}
		if wireLen != expected {
			return 0, optBadLen
		}
	default: // variable length, the wire length byte governs
		if wireLen < 2 {
			return 0, optBadLen
		}
		if i+wireLen > len(opts) {
			return 0, optTrunc
		}
	}

	rec.Len = uint8(wireLen - 2)
	if wireLen == 2 {
		rec.Data = nil
	} else {
		rec.Data = opts[i+2 : i+wireLen]
	}
	return wireLen, optOK
}
