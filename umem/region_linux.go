//go:build linux

package umem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NewRegion allocates a page-aligned, anonymous mmap'd frame pool sized to
// layout.Size() bytes, matching the production (non-simulator) path
// described for the UMEM region.
func NewRegion(layout Layout) (*Region, error) {
	if err := validateLayout(layout); err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(-1, 0, int(layout.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("umem: mmap anon region: %w", err)
	}
	return newRegion(mem, layout), nil
}

// Close releases the mapped region. A second call on the same Region finds
// no mapping left and returns nil without unmapping again.
func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}
