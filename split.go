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

	"code.hybscloud.com/lfq"

	"github.com/afxdp-go/afxdp/internal/backend"
	"github.com/afxdp-go/afxdp/ring"
	"github.com/afxdp-go/afxdp/umem"
	"github.com/afxdp-go/afxdp/xdpabi"
)

// refillDrainBatch bounds how many addresses RxHalf.Recv pulls per refill
// pass and how many completions TxHalf.Send reclaims per call.
const refillDrainBatch = 32

// RxHalf owns RX and FILL after Split. It may run on its own goroutine,
// independent of TxHalf.
type RxHalf struct {
	sock   backend.Socket
	region *umem.Region
	rx     *ring.Consumer[ring.Descriptor]
	fill   *ring.Producer[uint64]

	freeQueue      *lfq.MPSC[uint64]
	completedQueue *lfq.MPSC[uint64]
}

// TxHalf owns TX and COMPLETION after Split. It may run on its own
// goroutine, independent of RxHalf.
type TxHalf struct {
	sock backend.Socket
	tx   *ring.Producer[ring.Descriptor]
	comp *ring.Consumer[uint64]

	completedQueue *lfq.MPSC[uint64]
	txFlags        *uint32
}

// Split consumes raw and returns independent Rx/Tx handles over its
// disjoint rings. Both share the UMEM region and a lock-free free-frame
// queue carrying addresses of application-dropped frames back to Rx's
// refill path.
//
// completedQueue closes the loop the split Rust prototype this is ported
// from left open: TxHalf.reclaim pushes drained COMPLETION addresses onto
// it instead of discarding them, and RxHalf.Recv's refill drains it
// alongside the free-frame queue, so transmitted frames return to the pool
// across the split boundary instead of leaking.
func Split(raw *RawHandle) (*RxHalf, *TxHalf) {
	// Arm FILL with every frame address, as many as fit, so RX has buffers
	// to receive into before any packet has been released.
	if n := min(raw.fill.Available(), raw.layout.FrameCount); n > 0 {
		if base, ok := raw.fill.Reserve(n); ok {
			for i := uint32(0); i < n; i++ {
				addr, _ := raw.layout.IdxToAddr(i)
				raw.fill.WriteAt(base+i, addr)
			}
			raw.fill.Submit(base + n)
		}
	}

	capacity := int(raw.ringSize)
	freeQueue := lfq.NewMPSC[uint64](capacity)
	completedQueue := lfq.NewMPSC[uint64](capacity)

	rx := &RxHalf{
		sock:           raw.sock,
		region:         raw.region,
		rx:             raw.rx,
		fill:           raw.fill,
		freeQueue:      freeQueue,
		completedQueue: completedQueue,
	}
	tx := &TxHalf{
		sock:           raw.sock,
		tx:             raw.tx,
		comp:           raw.comp,
		completedQueue: completedQueue,
		txFlags:        raw.txFlags,
	}
	return rx, tx
}

// Recv refills FILL from the free-frame and completed-TX queues, then
// drains up to max descriptors from RX into owning Packet handles.
func (h *RxHalf) Recv(max int) []*Packet {
	h.refill()

	n, idx := h.rx.Peek(uint32(max))
	if n == 0 {
		return nil
	}
	packets := make([]*Packet, 0, n)
	for i := uint32(0); i < n; i++ {
		desc := h.rx.ReadAt(idx + i)
		packets = append(packets, newPacket(desc.Addr, desc.Len, h.region, h.freeQueue))
	}
	h.rx.Release(n)
	return packets
}

func (h *RxHalf) refill() {
	capacity := h.fill.Available()
	if capacity > refillDrainBatch {
		capacity = refillDrainBatch
	}
	if capacity == 0 {
		return
	}
	base, ok := h.fill.Reserve(capacity)
	if !ok {
		return
	}
	var w uint32
	for w < capacity {
		addr, err := h.freeQueue.Dequeue()
		if err != nil {
			addr, err = h.completedQueue.Dequeue()
			if err != nil {
				break
			}
		}
		h.fill.WriteAt(base+w, addr)
		w++
	}
	if w > 0 {
		h.fill.Submit(base + w)
	}
}

// Send reclaims completed TX frames first, then attempts to reserve and
// submit one TX slot for pkt. On success ownership of the frame passes to
// the kernel and the packet's own release is suppressed. On failure (TX
// full) the packet is released instead, returning its frame to the
// free-frame queue so Rx recycles it back to FILL.
func (h *TxHalf) Send(pkt *Packet) bool {
	h.reclaim()

	base, ok := h.tx.Reserve(1)
	if !ok {
		pkt.Release()
		return false
	}
	h.tx.WriteAt(base, ring.Descriptor{Addr: pkt.Addr(), Len: pkt.Len()})
	h.tx.Submit(base + 1)
	if h.needsWakeup() {
		_ = h.sock.WakeTX()
	}
	pkt.forget()
	return true
}

func (h *TxHalf) reclaim() {
	n, idx := h.comp.Peek(refillDrainBatch)
	if n == 0 {
		return
	}
	for i := uint32(0); i < n; i++ {
		addr := h.comp.ReadAt(idx + i)
		_ = h.completedQueue.Enqueue(&addr)
	}
	h.comp.Release(n)
}

func (h *TxHalf) needsWakeup() bool {
	return atomic.LoadUint32(h.txFlags)&xdpabi.RingFlagNeedsWakeup != 0
}
