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
	"fmt"
	"runtime"

	"code.hybscloud.com/lfq"

	"github.com/afxdp-go/afxdp/proto"
	"github.com/afxdp-go/afxdp/ring"
	"github.com/afxdp-go/afxdp/umem"
)

// Packet is an owning handle to one received frame, returned by
// RxHalf.Recv. Its underlying frame is exclusively owned for the handle's
// lifetime; Release returns the frame's address to the free-frame queue so
// Rx can rearm FILL with it. A packet that is never released leaks its
// frame from the pool, matching the "addr enqueued on drop" contract with
// an explicit call instead of a destructor — backed by a finalizer as a
// safety net for callers that forget.
type Packet struct {
	addr      uint64
	ln        uint32
	region    *umem.Region
	freeQueue *lfq.MPSC[uint64]
	released  bool
}

func newPacket(addr uint64, ln uint32, region *umem.Region, freeQueue *lfq.MPSC[uint64]) *Packet {
	p := &Packet{addr: addr, ln: ln, region: region, freeQueue: freeQueue}
	runtime.SetFinalizer(p, (*Packet).Release)
	return p
}

// Addr returns the frame's UMEM address.
func (p *Packet) Addr() uint64 { return p.addr }

// Len returns the packet's length within its frame.
func (p *Packet) Len() uint32 { return p.ln }

// Data returns the packet's bytes.
func (p *Packet) Data() []byte {
	b, _ := p.region.Get(ring.Descriptor{Addr: p.addr, Len: p.ln})
	return b
}

// Release returns the frame's address to the free-frame queue. Safe to call
// more than once; only the first call enqueues.
func (p *Packet) Release() {
	if p.released {
		return
	}
	p.released = true
	runtime.SetFinalizer(p, nil)
	addr := p.addr
	_ = p.freeQueue.Enqueue(&addr)
}

// forget marks the packet released without enqueueing its address: used
// when ownership of the frame passes to the kernel via TxHalf.Send.
func (p *Packet) forget() {
	p.released = true
	runtime.SetFinalizer(p, nil)
}

// PacketRef is a borrowed, batch-scoped view over one RX descriptor inside
// an Engine callback: it may mutate payload bytes in place, adjust the
// headroom boundary, and set the batch's per-packet Action. Its lifetime
// does not outlive the batch cycle that created it.
type PacketRef struct {
	frame    []byte
	headroom int
	ln       uint32
	frameBase uint64
	action   *ring.Action
}

// Data returns the packet's current bytes (headroom already excluded).
func (r *PacketRef) Data() []byte { return r.frame[r.headroom : r.headroom+int(r.ln)] }

// Len returns the packet's current length.
func (r *PacketRef) Len() int { return int(r.ln) }

// Addr returns the packet's current UMEM address (frame base + headroom).
func (r *PacketRef) Addr() uint64 { return r.frameBase + uint64(r.headroom) }

// SetLen changes the packet's logical length without moving its start,
// bounded by the frame's capacity.
func (r *PacketRef) SetLen(n int) error {
	if n < 0 || r.headroom+n > len(r.frame) {
		return fmt.Errorf("af_xdp: set_len(%d) exceeds frame bounds", n)
	}
	r.ln = uint32(n)
	return nil
}

// AdjustHead shifts the packet's start pointer by delta bytes: positive
// strips headers, negative expands into headroom. It rejects any shift that
// would cross either the frame's start or its end, fixing the unchecked
// negative-offset underflow the Rust prototype this is ported from allowed.
func (r *PacketRef) AdjustHead(delta int) error {
	newHeadroom := r.headroom + delta
	if newHeadroom < 0 {
		return fmt.Errorf("af_xdp: adjust_head(%d) underflows frame headroom", delta)
	}
	if newHeadroom+int(r.ln) > len(r.frame) {
		return fmt.Errorf("af_xdp: adjust_head(%d) overflows frame", delta)
	}
	r.headroom = newHeadroom
	return nil
}

// Send marks this packet for transmission; the Engine classifies it onto
// TX at the end of the batch cycle.
func (r *PacketRef) Send() { *r.action = ring.Tx }

// Drop marks this packet to be recycled back to FILL — the default.
func (r *PacketRef) Drop() { *r.action = ring.Drop }

// Ethernet parses the packet's current bytes as an Ethernet frame.
func (r *PacketRef) Ethernet() (proto.EthHeader, []byte, bool) { return proto.ParseEthernet(r.Data()) }

// IPv4 parses data as an Ethernet+IPv4 frame and returns the IPv4 header
// and its payload.
func (r *PacketRef) IPv4() (proto.Ipv4Header, []byte, bool) {
	_, payload, ok := r.Ethernet()
	if !ok {
		return proto.Ipv4Header{}, nil, false
	}
	return proto.ParseIPv4(payload)
}

// UDP parses data as Ethernet+IPv4+UDP and returns the UDP header and its
// payload.
func (r *PacketRef) UDP() (proto.UdpHeader, []byte, bool) {
	_, l4, ok := r.IPv4()
	if !ok {
		return proto.UdpHeader{}, nil, false
	}
	return proto.ParseUDP(l4)
}

// TCP parses data as Ethernet+IPv4+TCP and returns the TCP header and its
// payload.
func (r *PacketRef) TCP() (proto.TcpHeader, []byte, bool) {
	_, l4, ok := r.IPv4()
	if !ok {
		return proto.TcpHeader{}, nil, false
	}
	return proto.ParseTCP(l4)
}

// ICMP parses data as Ethernet+IPv4+ICMP and returns the ICMP header and its
// payload.
func (r *PacketRef) ICMP() (proto.IcmpHeader, []byte, bool) {
	_, l4, ok := r.IPv4()
	if !ok {
		return proto.IcmpHeader{}, nil, false
	}
	return proto.ParseICMP(l4)
}

// Batch is the view an Engine callback receives once per cycle: every
// descriptor drained from RX this cycle, as mutable PacketRefs.
type Batch struct {
	refs []PacketRef
}

// Len returns the number of packets in the batch.
func (b *Batch) Len() int { return len(b.refs) }

// At returns the packet at index i.
func (b *Batch) At(i int) *PacketRef { return &b.refs[i] }

// Range calls fn once per packet, in RX order.
func (b *Batch) Range(fn func(*PacketRef)) {
	for i := range b.refs {
		fn(&b.refs[i])
	}
}

// BatchFunc is the user callback Engine.Run drives once per non-empty
// batch cycle.
type BatchFunc func(*Batch)
