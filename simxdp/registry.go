// Package simxdp is the in-process AF_XDP simulator: it stands in for the
// kernel, on any OS, whenever a Builder selects it with WithSimulator in
// place of the real backend (internal/xdpsys). It answers the
// same setsockopt/mmap/bind/wake sequence Builder drives the real backend
// through, keeping per-socket ring state in a process-wide registry
// instead of in the kernel.
package simxdp

import (
	"sync"
	"unsafe"

	"github.com/afxdp-go/afxdp/aferr"
	"github.com/afxdp-go/afxdp/xdpabi"
)

const ringHeaderLen = 16 // producer(4) consumer(4) flags(4) pad(4), desc array starts at 16

var (
	mu      sync.Mutex
	sockets = map[int]*mockSocket{}
	nextFD  = 1000
)

type mockSocket struct {
	fd int

	umemAddr uintptr
	umemLen  uint64

	rxRing, txRing, fillRing, compRing []byte

	ifIndex, queueID uint32
	bindFlags        uint16
	closed           bool
}

func (s *mockSocket) umem() []byte {
	if s.umemAddr == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(s.umemAddr)), s.umemLen)
}

// ResetRegistry drops all simulated sockets. Tests call this between cases
// so socket numbering and leftover ring state from one test can't leak
// into the next.
func ResetRegistry() {
	mu.Lock()
	defer mu.Unlock()
	sockets = map[int]*mockSocket{}
	nextFD = 1000
}

func registerSocket() *mockSocket {
	mu.Lock()
	defer mu.Unlock()
	fd := nextFD
	nextFD++
	s := &mockSocket{fd: fd}
	sockets[fd] = s
	return s
}

// lookupSocket finds a live socket by fd. It does not take mu itself: the
// control functions call it while already holding mu.
func lookupSocket(fd int) (*mockSocket, error) {
	s, ok := sockets[fd]
	if !ok || s.closed {
		return nil, aferr.ErrSocketNotFound
	}
	return s, nil
}

func ringFor(s *mockSocket, opt int) *[]byte {
	switch opt {
	case xdpabi.RxRingOpt:
		return &s.rxRing
	case xdpabi.TxRingOpt:
		return &s.txRing
	case xdpabi.UmemFillRingOpt:
		return &s.fillRing
	case xdpabi.UmemCompletionOpt:
		return &s.compRing
	default:
		return nil
	}
}

func ringForOffset(s *mockSocket, pageOffset uint64) *[]byte {
	switch pageOffset {
	case xdpabi.PgoffRX:
		return &s.rxRing
	case xdpabi.PgoffTX:
		return &s.txRing
	case xdpabi.PgoffFill:
		return &s.fillRing
	case xdpabi.PgoffComp:
		return &s.compRing
	default:
		return nil
	}
}

func descIsAddrOnly(pageOffset uint64) bool {
	return pageOffset == xdpabi.PgoffFill || pageOffset == xdpabi.PgoffComp
}

// elemSizeForOffset mirrors elemSizeFor but keys off the mmap page offset
// rather than the setsockopt ring option, for callers that only have the
// former (ringForOffset's callers).
func elemSizeForOffset(pageOffset uint64) int {
	if descIsAddrOnly(pageOffset) {
		return 8
	}
	return 16
}

func ringWords(buf []byte) (producer, consumer, flags *uint32) {
	base := unsafe.Pointer(&buf[0])
	return (*uint32)(base), (*uint32)(unsafe.Add(base, 4)), (*uint32)(unsafe.Add(base, 8))
}

func ringMask(buf []byte, elemSize int) uint32 {
	n := (len(buf) - ringHeaderLen) / elemSize
	return uint32(n) - 1
}

func descSlotAddr(buf []byte, idx, mask uint32, elemSize int) unsafe.Pointer {
	off := ringHeaderLen + int(idx&mask)*elemSize
	return unsafe.Pointer(&buf[off])
}
