package proto

import "encoding/binary"

const ipv4HeaderMinLen = 20

// Ipv4Header holds the fields decoded from a (possibly options-bearing)
// IPv4 header, already converted from network byte order; VerIHL is kept
// raw since Version/IHL split it further.
type Ipv4Header struct {
	VerIHL   byte
	TOS      byte
	totalLen uint16
	ID       uint16
	FragOff  uint16
	TTL      byte
	Proto    byte
	Check    uint16
	src      uint32
	dst      uint32
}

func (h Ipv4Header) Version() byte    { return h.VerIHL >> 4 }
func (h Ipv4Header) IHL() byte        { return h.VerIHL & 0x0F }
func (h Ipv4Header) HeaderLen() int   { return int(h.IHL()) * 4 }
func (h Ipv4Header) TotalLen() uint16 { return h.totalLen }
func (h Ipv4Header) Src() uint32      { return h.src }
func (h Ipv4Header) Dst() uint32      { return h.dst }

// ParseIPv4 returns the IPv4 header and payload (options included in the
// header, excluded from the returned payload), or ok=false if data is too
// short or its declared header length doesn't fit.
func ParseIPv4(data []byte) (h Ipv4Header, payload []byte, ok bool) {
	if len(data) < ipv4HeaderMinLen {
		return Ipv4Header{}, nil, false
	}
	h.VerIHL = data[0]
	h.TOS = data[1]
	h.totalLen = binary.BigEndian.Uint16(data[2:4])
	h.ID = binary.BigEndian.Uint16(data[4:6])
	h.FragOff = binary.BigEndian.Uint16(data[6:8])
	h.TTL = data[8]
	h.Proto = data[9]
	h.Check = binary.BigEndian.Uint16(data[10:12])
	h.src = binary.BigEndian.Uint32(data[12:16])
	h.dst = binary.BigEndian.Uint32(data[16:20])

	hl := h.HeaderLen()
	if hl < ipv4HeaderMinLen || len(data) < hl {
		return Ipv4Header{}, nil, false
	}
	return h, data[hl:], true
}
