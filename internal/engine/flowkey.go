package engine

import (
	"bytes"
	"encoding/binary"
)

const (
	etherHdrLen   = 14
	etherTypeVLAN = 0x8100
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86dd
)

// FlowKey extracts a dispatch affinity key from a raw Ethernet frame: the IP
// address pair plus transport ports, canonically ordered so both directions
// of a session land on the same partition. Frames without a usable IP layer
// key on the MAC pair instead.
func FlowKey(frame []byte) string {
	if len(frame) < etherHdrLen {
		return string(frame)
	}

	etherType := binary.BigEndian.Uint16(frame[12:14])
	off := etherHdrLen
	if etherType == etherTypeVLAN && len(frame) >= off+4 {
		etherType = binary.BigEndian.Uint16(frame[off+2 : off+4])
		off += 4
	}

	switch etherType {
	case etherTypeIPv4:
		if len(frame) < off+20 {
			break
		}
		ihl := int(frame[off]&0x0f) * 4
		if ihl < 20 || len(frame) < off+ihl {
			break
		}
		proto := frame[off+9]
		src := frame[off+12 : off+16]
		dst := frame[off+16 : off+20]
		sp, dp := portSlices(frame, off+ihl, proto)
		return canonKey(src, sp, dst, dp)

	case etherTypeIPv6:
		if len(frame) < off+40 {
			break
		}
		proto := frame[off+6]
		src := frame[off+8 : off+24]
		dst := frame[off+24 : off+40]
		sp, dp := portSlices(frame, off+40, proto)
		return canonKey(src, sp, dst, dp)
	}

	return string(frame[0:12])
}

// portSlices returns the source and destination port bytes for TCP and UDP,
// nil otherwise. Both protocols put the port pair first.
func portSlices(frame []byte, off int, proto uint8) (sp, dp []byte) {
	if proto != 6 && proto != 17 {
		return nil, nil
	}
	if len(frame) < off+4 {
		return nil, nil
	}
	return frame[off : off+2], frame[off+2 : off+4]
}

// canonKey concatenates the two endpoints in a stable order.
func canonKey(aAddr, aPort, bAddr, bPort []byte) string {
	buf := make([]byte, 0, 36)
	if cmpEndpoint(aAddr, aPort, bAddr, bPort) <= 0 {
		buf = append(append(buf, aAddr...), aPort...)
		buf = append(append(buf, bAddr...), bPort...)
	} else {
		buf = append(append(buf, bAddr...), bPort...)
		buf = append(append(buf, aAddr...), aPort...)
	}
	return string(buf)
}

func cmpEndpoint(aAddr, aPort, bAddr, bPort []byte) int {
	if c := bytes.Compare(aAddr, bAddr); c != 0 {
		return c
	}
	return bytes.Compare(aPort, bPort)
}
