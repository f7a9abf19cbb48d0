package umem

import (
	"fmt"

	"github.com/afxdp-go/afxdp/ring"
)

// Region is the mapped frame pool backing RX/FILL/TX/COMPLETION descriptors.
// Its byte backing comes from an OS-specific allocator (anonymous mmap on
// linux, a plain heap slice elsewhere/in the simulator).
type Region struct {
	mem    []byte
	layout Layout
}

// newRegion wraps an already-allocated byte slice sized to layout.Size().
func newRegion(mem []byte, layout Layout) *Region {
	return &Region{mem: mem, layout: layout}
}

// Layout returns the region's frame geometry.
func (r *Region) Layout() Layout { return r.layout }

// Base returns the region's base address for registering with the kernel
// (XDP_UMEM_REG's addr field) or, in the simulator, for pointer arithmetic.
func (r *Region) Base() []byte { return r.mem }

// Len returns the region's total byte size.
func (r *Region) Len() int { return len(r.mem) }

// Get returns the byte slice a descriptor refers to, bounds-checked against
// the region's size: addr+len must not exceed the UMEM bound. A descriptor
// that fails this check is a protocol violation and must be dropped by the
// caller, never exposed as bytes.
func (r *Region) Get(desc ring.Descriptor) ([]byte, bool) {
	end := desc.Addr + uint64(desc.Len)
	if end > uint64(len(r.mem)) || end < desc.Addr {
		return nil, false
	}
	return r.mem[desc.Addr:end], true
}

// FrameAt returns the full frame (frame_size bytes) at addr, bounds-checked
// and aligned to frame_size. Engine uses it to give each RX PacketRef its
// whole frame, so headroom and length changes can be bounds-checked.
func (r *Region) FrameAt(addr uint64) ([]byte, bool) {
	if addr%uint64(r.layout.FrameSize) != 0 {
		return nil, false
	}
	end := addr + uint64(r.layout.FrameSize)
	if end > uint64(len(r.mem)) {
		return nil, false
	}
	return r.mem[addr:end], true
}

func validateLayout(layout Layout) error {
	size := layout.Size()
	if size == 0 {
		return fmt.Errorf("umem: zero-size layout")
	}
	return nil
}
