package ring

import (
	"sync/atomic"
	"unsafe"
)

// Producer is the application-owned half of an SPSC ring: FILL and TX carry
// a Producer. Its cursor is written here and read by the kernel; the peer
// cursor is written by the kernel and read here.
//
// producer/consumer point into memory shared with an untrusted writer (the
// kernel or the simulator), so every access goes through sync/atomic rather
// than a plain load/store — a torn read here is a protocol desync, not just
// a data race.
type Producer[T Slot] struct {
	producer *uint32
	consumer *uint32
	descs    []T
	mask     uint32
	size     uint32
}

// NewProducer wraps raw pointers into mmap'd (or simulated) ring memory.
// The caller must guarantee producerPtr, consumerPtr and descPtr remain
// valid and mapped for the lifetime of the returned Producer, and that size
// is a power of two matching the ring's configured size.
func NewProducer[T Slot](producerPtr, consumerPtr *uint32, descPtr unsafe.Pointer, size uint32) *Producer[T] {
	return &Producer[T]{
		producer: producerPtr,
		consumer: consumerPtr,
		descs:    unsafe.Slice((*T)(descPtr), size),
		mask:     size - 1,
		size:     size,
	}
}

// Available reports how many slots are currently free to reserve.
func (p *Producer[T]) Available() uint32 {
	producerIdx := atomic.LoadUint32(p.producer)
	consumerIdx := atomic.LoadUint32(p.consumer)
	return p.size - (producerIdx - consumerIdx)
}

// Len returns the ring's fixed capacity.
func (p *Producer[T]) Len() uint32 { return p.size }

// Reserve attempts to reserve n contiguous slots starting at the returned
// index. It never returns a partial reservation: insufficient space yields
// (0, false), not a truncated range.
func (p *Producer[T]) Reserve(n uint32) (uint32, bool) {
	producerIdx := atomic.LoadUint32(p.producer)
	consumerIdx := atomic.LoadUint32(p.consumer)

	available := p.size - (producerIdx - consumerIdx)
	if available < n {
		return 0, false
	}
	return producerIdx, true
}

// WriteAt stores a slot at logical index idx. The caller must hold a
// reservation covering idx (from a prior Reserve) and must not call this
// concurrently with another Producer method — Producer is single-writer.
func (p *Producer[T]) WriteAt(idx uint32, val T) {
	p.descs[idx&p.mask] = val
}

// Submit publishes newProducer with a release-equivalent store, making every
// slot write up to newProducer visible to the consumer side.
func (p *Producer[T]) Submit(newProducer uint32) {
	atomic.StoreUint32(p.producer, newProducer)
}
