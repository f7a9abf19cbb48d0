package proto

import "encoding/binary"

const udpHeaderLen = 8

// UdpHeader holds the fields decoded from a UDP header.
type UdpHeader struct {
	srcPort uint16
	dstPort uint16
	length  uint16
	Check   uint16
}

func (h UdpHeader) SrcPort() uint16 { return h.srcPort }
func (h UdpHeader) DstPort() uint16 { return h.dstPort }
func (h UdpHeader) Length() uint16  { return h.length }

// ParseUDP returns the UDP header and payload, or ok=false if data is too
// short to hold one.
func ParseUDP(data []byte) (h UdpHeader, payload []byte, ok bool) {
	if len(data) < udpHeaderLen {
		return UdpHeader{}, nil, false
	}
	h.srcPort = binary.BigEndian.Uint16(data[0:2])
	h.dstPort = binary.BigEndian.Uint16(data[2:4])
	h.length = binary.BigEndian.Uint16(data[4:6])
	h.Check = binary.BigEndian.Uint16(data[6:8])
	return h, data[udpHeaderLen:], true
}

// VerifyChecksum validates h's checksum against the IPv4 pseudo-header and
// the raw UDP segment bytes (header + payload, as they appeared on the
// wire). A zero checksum is valid per RFC 768 (optional in IPv4).
func (h UdpHeader) VerifyChecksum(ip Ipv4Header, segment []byte) bool {
	if h.Check == 0 {
		return true
	}
	sum := pseudoHeaderSum(ip, ip.Proto, h.length)
	sum += partialSum(segment)
	return finishChecksum(sum) == 0
}
