package proto

import "encoding/binary"

const icmpHeaderLen = 4

// IcmpHeader holds the fields decoded from an ICMP header (type/code/checksum;
// the 4-byte rest-of-header field is left in the payload since its meaning
// is type-dependent).
type IcmpHeader struct {
	Kind  byte
	Code  byte
	check uint16
}

func (h IcmpHeader) Checksum() uint16 { return h.check }

// ParseICMP returns the ICMP header and payload, or ok=false if data is too
// short to hold one.
func ParseICMP(data []byte) (h IcmpHeader, payload []byte, ok bool) {
	if len(data) < icmpHeaderLen {
		return IcmpHeader{}, nil, false
	}
	h.Kind = data[0]
	h.Code = data[1]
	h.check = binary.BigEndian.Uint16(data[2:4])
	return h, data[icmpHeaderLen:], true
}
