// Package xdpabi holds the AF_XDP wire ABI constants shared by the real
// kernel backend (internal/xdpsys) and the simulator (simxdp), so both sides
// agree on the same sockopt codes and mmap page offsets without duplicating
// the constant block.
package xdpabi

// Setsockopt/getsockopt option codes (SOL_XDP level).
const (
	UmemRegOpt        = 4
	UmemFillRingOpt   = 5
	UmemCompletionOpt = 6
	RxRingOpt         = 2
	TxRingOpt         = 3
	MmapOffsetsOpt    = 1
)

// Fixed mmap page offsets, one per ring.
const (
	PgoffRX   uint64 = 0
	PgoffTX   uint64 = 0x80000000
	PgoffFill uint64 = 0x100000000
	PgoffComp uint64 = 0x180000000
)

// Bind flags (16-bit).
const (
	BindSharedUmem uint16 = 1
	BindCopy       uint16 = 2
	BindZeroCopy   uint16 = 4
)

// Ring flag bits published in each ring's mmap'd flags word; a set
// NeedsWakeup bit means the application must issue the corresponding wake
// syscall when the ring is not otherwise being serviced by the kernel.
const RingFlagNeedsWakeup uint32 = 1

// RingOffsets is the kernel's XDP_MMAP_OFFSETS answer for one ring: byte
// offsets, from the start of that ring's mmap region, of the producer
// cursor, consumer cursor, descriptor array, and flags word.
type RingOffsets struct {
	Producer uint64
	Consumer uint64
	Desc     uint64
	Flags    uint64
}

// MmapOffsets is the full XDP_MMAP_OFFSETS getsockopt payload: one
// RingOffsets per ring.
type MmapOffsets struct {
	RX   RingOffsets
	TX   RingOffsets
	Fill RingOffsets
	Comp RingOffsets
}

// UmemReg is the XDP_UMEM_REG setsockopt payload.
type UmemReg struct {
	Addr     uint64
	Len      uint64
	ChunkSize uint32
	Headroom uint32
	Flags    uint32
}

// SockaddrXdp is the AF_XDP bind() sockaddr.
type SockaddrXdp struct {
	Family        uint16
	Flags         uint16
	IfIndex       uint32
	QueueID       uint32
	SharedUmemFD  uint32
}
