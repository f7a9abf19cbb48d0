package proto

import "encoding/binary"

const tcpHeaderMinLen = 20

// TcpHeader holds the fixed fields decoded from a (possibly options-bearing)
// TCP header.
type TcpHeader struct {
	srcPort       uint16
	dstPort       uint16
	Seq           uint32
	Ack           uint32
	dataOffResFlg uint16
	Window        uint16
	Check         uint16
	UrgPtr        uint16
}

func (h TcpHeader) SrcPort() uint16      { return h.srcPort }
func (h TcpHeader) DstPort() uint16      { return h.dstPort }
func (h TcpHeader) DataOffset() byte     { return byte(h.dataOffResFlg>>12) & 0xF }
func (h TcpHeader) HeaderLen() int       { return int(h.DataOffset()) * 4 }
func (h TcpHeader) Flags() uint16        { return h.dataOffResFlg & 0x01FF }

// ParseTCP returns the TCP header and payload, or ok=false if data is too
// short or its declared data offset doesn't fit or is implausibly small.
func ParseTCP(data []byte) (h TcpHeader, payload []byte, ok bool) {
	if len(data) < tcpHeaderMinLen {
		return TcpHeader{}, nil, false
	}
	h.srcPort = binary.BigEndian.Uint16(data[0:2])
	h.dstPort = binary.BigEndian.Uint16(data[2:4])
	h.Seq = binary.BigEndian.Uint32(data[4:8])
	h.Ack = binary.BigEndian.Uint32(data[8:12])
	h.dataOffResFlg = binary.BigEndian.Uint16(data[12:14])
	h.Window = binary.BigEndian.Uint16(data[14:16])
	h.Check = binary.BigEndian.Uint16(data[16:18])
	h.UrgPtr = binary.BigEndian.Uint16(data[18:20])

	hl := h.HeaderLen()
	if hl < tcpHeaderMinLen || len(data) < hl {
		return TcpHeader{}, nil, false
	}
	return h, data[hl:], true
}

// VerifyChecksum validates h's checksum against the IPv4 pseudo-header and
// the raw TCP segment bytes (header + payload).
func (h TcpHeader) VerifyChecksum(ip Ipv4Header, segment []byte) bool {
	ipLen := int(ip.TotalLen())
	ipHdrLen := ip.HeaderLen()
	if ipLen < ipHdrLen {
		return false
	}
	segLen := ipLen - ipHdrLen
	sum := pseudoHeaderSum(ip, ip.Proto, uint16(segLen))
	sum += partialSum(segment)
	return finishChecksum(sum) == 0
}
