//go:build !linux

package umem

// NewRegion allocates a plain heap-backed frame pool. Outside linux there is
// no AF_XDP kernel to mmap against, so this path exists for the simulator
// and for running the ring/engine test suite on any OS.
func NewRegion(layout Layout) (*Region, error) {
	if err := validateLayout(layout); err != nil {
		return nil, err
	}
	return newRegion(make([]byte, layout.Size()), layout), nil
}

// Close releases the region. On the heap-backed path there is nothing to
// unmap; this exists so callers don't need a build-tag switch of their own.
func (r *Region) Close() error {
	r.mem = nil
	return nil
}
