package ring

import (
	"math/rand/v2"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func unsafePtr[T any](s []T) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(s))
}

func newPair[T Slot](size uint32) (*Producer[T], *Consumer[T], *uint32, *uint32) {
	var prod, cons uint32
	descs := make([]T, size)
	p := NewProducer[T](&prod, &cons, unsafePtr(descs), size)
	c := NewConsumer[T](&prod, &cons, unsafePtr(descs), size)
	return p, c, &prod, &cons
}

func TestProducerReserveSubmit(t *testing.T) {
	p, _, prodIdx, _ := newPair[uint64](4)

	idx, ok := p.Reserve(2)
	require.True(t, ok)
	require.EqualValues(t, 0, idx)

	p.WriteAt(idx, 100)
	p.WriteAt(idx+1, 101)
	p.Submit(idx + 2)
	require.EqualValues(t, 2, *prodIdx)

	idx2, ok := p.Reserve(2)
	require.True(t, ok)
	require.EqualValues(t, 2, idx2)
	p.Submit(idx2 + 2)
	require.EqualValues(t, 4, *prodIdx)

	_, ok = p.Reserve(1)
	require.False(t, ok, "ring is full, reservation must fail rather than truncate")
}

func TestConsumerPeekRelease(t *testing.T) {
	_, c, prodIdx, consIdx := newPair[uint64](4)

	require.EqualValues(t, 0, firstOf(c.Peek(4)))

	*prodIdx = 2
	n, idx := c.Peek(4)
	require.EqualValues(t, 2, n)
	require.EqualValues(t, 0, idx)
	require.EqualValues(t, 0, c.ConsumerIdx())

	c.Release(2)
	require.EqualValues(t, 2, *consIdx)
	require.EqualValues(t, 0, firstOf(c.Peek(4)))
}

func TestRingWrapCorrectness(t *testing.T) {
	const size = 4
	var prodIdx, consIdx uint32 = ^uint32(0) - 1, ^uint32(0) - 1 // 2^32 - 2
	descs := make([]uint64, size)

	p := NewProducer[uint64](&prodIdx, &consIdx, unsafePtr(descs), size)

	idx, ok := p.Reserve(2)
	require.True(t, ok)
	require.Equal(t, ^uint32(0)-1, idx)

	p.WriteAt(idx, 10)
	p.WriteAt(idx+1, 11)
	newProd := idx + 2
	p.Submit(newProd)
	require.EqualValues(t, 0, prodIdx, "producer index must wrap through zero")

	c := NewConsumer[uint64](&prodIdx, &consIdx, unsafePtr(descs), size)
	n, start := c.Peek(4)
	require.EqualValues(t, 2, n)
	require.Equal(t, ^uint32(0)-1, start)
	require.EqualValues(t, 10, c.ReadAt(start))
	require.EqualValues(t, 11, c.ReadAt(start+1))

	c.Release(2)
	require.EqualValues(t, 0, consIdx)
}

// TestRingRoundTrip drives random reserve/submit/peek/release sequences
// respecting capacity and checks the consumer observes exactly what the
// producer wrote, in order.
func TestRingRoundTrip(t *testing.T) {
	const size = 16
	p, c, _, _ := newPair[uint64](size)

	rng := rand.New(rand.NewPCG(1, 2))
	var produced, consumed []uint64
	var nextVal uint64

	for i := 0; i < 5000; i++ {
		if rng.IntN(2) == 0 {
			n := uint32(rng.IntN(5) + 1)
			idx, ok := p.Reserve(n)
			if !ok {
				continue
			}
			for j := uint32(0); j < n; j++ {
				p.WriteAt(idx+j, nextVal)
				produced = append(produced, nextVal)
				nextVal++
			}
			p.Submit(idx + n)
		} else {
			max := uint32(rng.IntN(5) + 1)
			n, idx := c.Peek(max)
			for j := uint32(0); j < n; j++ {
				consumed = append(consumed, c.ReadAt(idx+j))
			}
			c.Release(n)
		}
	}
	// Drain whatever remains.
	for {
		n, idx := c.Peek(size)
		if n == 0 {
			break
		}
		for j := uint32(0); j < n; j++ {
			consumed = append(consumed, c.ReadAt(idx+j))
		}
		c.Release(n)
	}

	require.Equal(t, produced, consumed)
}

func TestDefaultActionIsDrop(t *testing.T) {
	var a Action
	require.Equal(t, Drop, a)
}

func firstOf(a, _ uint32) uint32 { return a }
