package ring

import (
	"sync/atomic"
	"unsafe"
)

// desyncThreshold bounds the wrapping producer-consumer delta a Consumer
// will trust. A correctly operating peer never produces a delta this large;
// seeing one means the shared cursors desynchronized.
const desyncThreshold = 1 << 31

// Consumer is the application-owned half of an SPSC ring: RX and COMPLETION
// carry a Consumer.
type Consumer[T Slot] struct {
	producer *uint32
	consumer *uint32
	descs    []T
	mask     uint32
	size     uint32

	// DesyncCount counts Peek calls that observed an out-of-range producer
	// delta and clamped to empty instead of trusting it. Non-zero means the
	// ring protocol has desynchronized with its peer.
	DesyncCount uint64
}

// NewConsumer wraps raw pointers into mmap'd (or simulated) ring memory,
// under the same validity contract as NewProducer.
func NewConsumer[T Slot](producerPtr, consumerPtr *uint32, descPtr unsafe.Pointer, size uint32) *Consumer[T] {
	return &Consumer[T]{
		producer: producerPtr,
		consumer: consumerPtr,
		descs:    unsafe.Slice((*T)(descPtr), size),
		mask:     size - 1,
		size:     size,
	}
}

// Len returns the ring's fixed capacity.
func (c *Consumer[T]) Len() uint32 { return c.size }

// Peek returns how many slots (capped at max) are ready to read, and the
// consumer index the first of those slots starts at. A wrapping delta
// larger than desyncThreshold is impossible under correct operation and is
// treated as a signal of desync: it clamps to 0 rather than reading garbage.
func (c *Consumer[T]) Peek(max uint32) (uint32, uint32) {
	producerIdx := atomic.LoadUint32(c.producer)
	consumerIdx := atomic.LoadUint32(c.consumer)

	available := producerIdx - consumerIdx
	if available > desyncThreshold {
		if EnableAssertions {
			panic("ring: producer/consumer desync detected")
		}
		c.DesyncCount++
		return 0, consumerIdx
	}
	if available == 0 {
		return 0, consumerIdx
	}
	if available > max {
		available = max
	}
	return available, consumerIdx
}

// ConsumerIdx returns the current consumer cursor.
func (c *Consumer[T]) ConsumerIdx() uint32 {
	return atomic.LoadUint32(c.consumer)
}

// ReadAt reads the slot at logical index idx. The caller must only read
// indices within a range returned by a prior Peek.
func (c *Consumer[T]) ReadAt(idx uint32) T {
	return c.descs[idx&c.mask]
}

// Release advances the consumer cursor by n with a release-equivalent
// store, returning n slots to the producer side.
func (c *Consumer[T]) Release(n uint32) {
	current := atomic.LoadUint32(c.consumer)
	atomic.StoreUint32(c.consumer, current+n)
}

// EnableAssertions gates the debug-build desync panic: a ring that detects
// more producer/consumer distance than is physically possible panics
// instead of silently clamping to empty. Left false in production; flip it
// in a debug build while chasing a ring-protocol bug.
var EnableAssertions = false
