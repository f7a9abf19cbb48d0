package simxdp

import (
	"math/bits"

	"github.com/afxdp-go/afxdp/aferr"
	"github.com/afxdp-go/afxdp/internal/backend"
	"github.com/afxdp-go/afxdp/xdpabi"
)

// Backend is the simulator's backend.Backend: every Open call registers a
// fresh mock socket in the process-wide registry.
type Backend struct{}

func (Backend) Open() (backend.Socket, error) {
	s := registerSocket()
	return &socketHandle{sock: s}, nil
}

// ResolveIfIndex never touches the real network stack: every interface
// name resolves to index 1, matching the Rust simulator fallback this is
// ported from.
func (Backend) ResolveIfIndex(name string) (uint32, error) { return 1, nil }

type socketHandle struct{ sock *mockSocket }

func (h *socketHandle) FD() int { return h.sock.fd }

func (h *socketHandle) SetUmemReg(addr, length uint64, chunkSize, headroom uint32) error {
	if chunkSize == 0 || bits.OnesCount32(chunkSize) != 1 {
		return aferr.ErrBadFrameSize
	}
	h.sock.umemAddr = uintptr(addr)
	h.sock.umemLen = length
	return nil
}

func (h *socketHandle) SetRingSize(opt int, size uint32) error {
	if size == 0 || bits.OnesCount32(size) != 1 {
		return aferr.Wrap("set ring size", aferr.ErrInvalidRingSize)
	}
	elem := elemSizeFor(opt)
	ptr := ringFor(h.sock, opt)
	if ptr == nil {
		return aferr.ErrUnknownRingOption
	}
	*ptr = make([]byte, ringHeaderLen+int(size)*elem)
	return nil
}

func (h *socketHandle) MmapOffsets() (xdpabi.MmapOffsets, error) {
	off := xdpabi.RingOffsets{Producer: 0, Consumer: 4, Flags: 8, Desc: ringHeaderLen}
	return xdpabi.MmapOffsets{RX: off, TX: off, Fill: off, Comp: off}, nil
}

func (h *socketHandle) MmapRing(length int, pageOffset uint64) ([]byte, error) {
	ptr := ringForOffset(h.sock, pageOffset)
	if ptr == nil || *ptr == nil {
		return nil, aferr.Wrap("mmap ring", aferr.ErrRingNotMapped)
	}
	return *ptr, nil
}

func (h *socketHandle) UnmapRing(mem []byte) error { return nil }

func (h *socketHandle) Bind(ifIndex, queueID uint32, bindFlags uint16) error {
	h.sock.ifIndex = ifIndex
	h.sock.queueID = queueID
	h.sock.bindFlags = bindFlags
	return nil
}

// WakeTX is a no-op: InjectPacket/ReadTXPacket service the rings
// synchronously, so there is nothing for a wake syscall to kick.
func (h *socketHandle) WakeTX() error { return nil }

func (h *socketHandle) WakeRX(timeoutMs int) (bool, error) {
	mu.Lock()
	defer mu.Unlock()
	if h.sock.rxRing == nil {
		return false, nil
	}
	producer, consumer, _ := ringWords(h.sock.rxRing)
	return *producer != *consumer, nil
}

func (h *socketHandle) Close() error {
	mu.Lock()
	defer mu.Unlock()
	h.sock.closed = true
	delete(sockets, h.sock.fd)
	return nil
}

func elemSizeFor(opt int) int {
	switch opt {
	case xdpabi.RxRingOpt, xdpabi.TxRingOpt:
		return 16 // ring.Descriptor: addr(8) + len(4) + options(4)
	default:
		return 8 // fill/completion rings hold bare frame addresses
	}
}
