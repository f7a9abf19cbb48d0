// Package umem implements the fixed-size frame pool shared with the kernel
// across the AF_XDP boundary, and the address<->index arithmetic tying RX,
// FILL, TX and COMPLETION descriptors to it.
package umem

import (
	"math/bits"

	"github.com/afxdp-go/afxdp/aferr"
)

// Layout describes the fixed geometry of a UMEM region: frame_size * frame_count
// contiguous bytes, frame_size a power of two no smaller than 2048.
type Layout struct {
	FrameSize  uint32
	FrameCount uint32
}

// NewLayout validates frame_size and returns a Layout, or an error if
// frame_size isn't a power of two >= 2048.
func NewLayout(frameSize, frameCount uint32) (Layout, error) {
	if frameSize < 2048 || bits.OnesCount32(frameSize) != 1 {
		return Layout{}, aferr.ErrBadFrameSize
	}
	return Layout{FrameSize: frameSize, FrameCount: frameCount}, nil
}

// Size returns the total byte size of the UMEM region this layout describes.
func (l Layout) Size() uint64 {
	return uint64(l.FrameSize) * uint64(l.FrameCount)
}

// AddrToIdx maps a frame address to its frame index. It fails for any
// address at or beyond the region's size.
func (l Layout) AddrToIdx(addr uint64) (uint32, bool) {
	if addr >= l.Size() {
		return 0, false
	}
	return uint32(addr / uint64(l.FrameSize)), true
}

// IdxToAddr maps a frame index to its base address. It fails for any index
// at or beyond frame_count.
func (l Layout) IdxToAddr(idx uint32) (uint64, bool) {
	if idx >= l.FrameCount {
		return 0, false
	}
	return uint64(idx) * uint64(l.FrameSize), true
}
