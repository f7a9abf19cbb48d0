package umem

// Allocator is a FIFO of free frame addresses, for callers assembling a
// packet to transmit before any RX/FILL/TX/COMPLETION ring is involved. It
// is optional: Engine and RxHalf/TxHalf never touch it, since frames there
// circulate through the rings directly.
type Allocator struct {
	free []uint64
	head int
	tail int
	n    int
}

// NewAllocator seeds an Allocator with every frame address in layout.
func NewAllocator(layout Layout) *Allocator {
	free := make([]uint64, layout.FrameCount)
	for i := uint32(0); i < layout.FrameCount; i++ {
		addr, _ := layout.IdxToAddr(i)
		free[i] = addr
	}
	return &Allocator{free: free, n: int(layout.FrameCount)}
}

// Allocate pops a free frame address, or (0, false) if none remain.
func (a *Allocator) Allocate() (uint64, bool) {
	if a.n == 0 {
		return 0, false
	}
	addr := a.free[a.head]
	a.head = (a.head + 1) % len(a.free)
	a.n--
	return addr, true
}

// Release returns addr to the free pool.
func (a *Allocator) Release(addr uint64) {
	if a.n == len(a.free) {
		return // pool corruption guard: never grow past frame_count
	}
	a.free[a.tail] = addr
	a.tail = (a.tail + 1) % len(a.free)
	a.n++
}

// Available reports how many frames are currently free.
func (a *Allocator) Available() int { return a.n }
