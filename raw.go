// MIT License
// Copyright (c) 2025 Cezame
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package afxdp

import (
	"sync/atomic"
	"unsafe"

	"github.com/afxdp-go/afxdp/internal/backend"
	"github.com/afxdp-go/afxdp/ring"
	"github.com/afxdp-go/afxdp/umem"
	"github.com/afxdp-go/afxdp/xdpabi"
)

// RawHandle owns, exclusively, every resource Builder assembled: the UMEM
// region, the four ring mappings and the producer/consumer halves over
// them, and the socket. Split or Close consume it.
type RawHandle struct {
	sock   backend.Socket
	region *umem.Region
	layout umem.Layout

	rxMem, txMem, fillMem, compMem []byte

	rx   *ring.Consumer[ring.Descriptor]
	tx   *ring.Producer[ring.Descriptor]
	fill *ring.Producer[uint64]
	comp *ring.Consumer[uint64]

	rxFlags *uint32
	txFlags *uint32

	ringSize uint32
}

func ringWordPtr(mem []byte, byteOffset uint64) *uint32 {
	return (*uint32)(unsafe.Add(unsafe.Pointer(&mem[0]), byteOffset))
}

func ringDescPtr(mem []byte, byteOffset uint64) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(&mem[0]), byteOffset)
}

// newRawHandle wraps four already-mapped ring byte buffers and the kernel's
// reported offsets into the typed ring halves Engine and split.go drive.
func newRawHandle(sock backend.Socket, region *umem.Region, layout umem.Layout, ringSize uint32,
	offsets xdpabi.MmapOffsets, rxMem, txMem, fillMem, compMem []byte) *RawHandle {
	rx := ring.NewConsumer[ring.Descriptor](
		ringWordPtr(rxMem, offsets.RX.Producer), ringWordPtr(rxMem, offsets.RX.Consumer),
		ringDescPtr(rxMem, offsets.RX.Desc), ringSize)
	tx := ring.NewProducer[ring.Descriptor](
		ringWordPtr(txMem, offsets.TX.Producer), ringWordPtr(txMem, offsets.TX.Consumer),
		ringDescPtr(txMem, offsets.TX.Desc), ringSize)
	fill := ring.NewProducer[uint64](
		ringWordPtr(fillMem, offsets.Fill.Producer), ringWordPtr(fillMem, offsets.Fill.Consumer),
		ringDescPtr(fillMem, offsets.Fill.Desc), ringSize)
	comp := ring.NewConsumer[uint64](
		ringWordPtr(compMem, offsets.Comp.Producer), ringWordPtr(compMem, offsets.Comp.Consumer),
		ringDescPtr(compMem, offsets.Comp.Desc), ringSize)

	return &RawHandle{
		sock:     sock,
		region:   region,
		layout:   layout,
		rxMem:    rxMem,
		txMem:    txMem,
		fillMem:  fillMem,
		compMem:  compMem,
		rx:       rx,
		tx:       tx,
		fill:     fill,
		comp:     comp,
		rxFlags:  ringWordPtr(rxMem, offsets.RX.Flags),
		txFlags:  ringWordPtr(txMem, offsets.TX.Flags),
		ringSize: ringSize,
	}
}

// Region returns the UMEM region backing every frame this handle's rings
// reference.
func (h *RawHandle) Region() *umem.Region { return h.region }

// Layout returns the UMEM's frame-size/frame-count layout.
func (h *RawHandle) Layout() umem.Layout { return h.layout }

// RxNeedsWakeup reports whether the kernel asked for a wake syscall before
// it will service RX again.
func (h *RawHandle) RxNeedsWakeup() bool {
	return atomic.LoadUint32(h.rxFlags)&xdpabi.RingFlagNeedsWakeup != 0
}

// TxNeedsWakeup reports the same for TX.
func (h *RawHandle) TxNeedsWakeup() bool {
	return atomic.LoadUint32(h.txFlags)&xdpabi.RingFlagNeedsWakeup != 0
}

// WakeRX issues the non-blocking RX wake (poll) syscall.
func (h *RawHandle) WakeRX(timeoutMs int) (bool, error) { return h.sock.WakeRX(timeoutMs) }

// WakeTX issues the non-blocking TX wake (sendto) syscall.
func (h *RawHandle) WakeTX() error { return h.sock.WakeTX() }

// FD returns the underlying socket descriptor, real or simulated.
func (h *RawHandle) FD() int { return h.sock.FD() }

// Close releases mappings, then the socket, then the UMEM region — the
// reverse of Builder.BuildRaw's acquisition order.
func (h *RawHandle) Close() error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	note(h.sock.UnmapRing(h.rxMem))
	note(h.sock.UnmapRing(h.txMem))
	note(h.sock.UnmapRing(h.fillMem))
	note(h.sock.UnmapRing(h.compMem))
	note(h.sock.Close())
	note(h.region.Close())
	return firstErr
}
