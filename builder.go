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

// Package afxdp is a user-space packet I/O library over AF_XDP: a socket
// bound to one NIC queue, its four shared-memory rings, and a UMEM frame
// pool, assembled by Builder into either a batch-callback Engine or a split
// Rx/Tx pair.
package afxdp

import (
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/afxdp-go/afxdp/internal/backend"
	"github.com/afxdp-go/afxdp/internal/xdpsys"
	"github.com/afxdp-go/afxdp/simxdp"
	"github.com/afxdp-go/afxdp/umem"
	"github.com/afxdp-go/afxdp/xdpabi"
)

// descElemSize/addrElemSize are the on-wire sizes of one RX/TX descriptor
// and one FILL/COMPLETION address slot, used to size each ring's mapping.
const (
	descElemSize = 16
	addrElemSize = 8
)

// PollStrategy selects how Engine.Run behaves on an empty batch cycle.
type PollStrategy int

const (
	// Adaptive spins briefly after the last non-empty cycle, then falls
	// back to sleeping. The default.
	Adaptive PollStrategy = iota
	// Busy re-enters process_batch immediately, trading a full CPU core
	// for lowest latency.
	Busy
	// Wait always sleeps for WaitSleep after an empty cycle.
	Wait
)

// Builder records the configuration surface and assembles it into a
// RawHandle via BuildRaw, in the fixed seven-step order: create UMEM,
// create socket, register UMEM, size the rings, query mmap offsets, map
// each ring, resolve the interface and bind.
type Builder struct {
	interfaceName string
	queueID       uint32
	frameCount    uint32
	frameSize     uint32
	bindFlags     uint16
	batchSize     int
	poller        PollStrategy

	backend backend.Backend
}

// NewBuilder returns a Builder with the documented defaults: frame_count
// 4096, frame_size 2048, bind_flags 0, poller Adaptive, batch_size 64,
// queue_id 0, real linux backend.
func NewBuilder() *Builder {
	return &Builder{
		frameCount: 4096,
		frameSize:  2048,
		batchSize:  64,
		poller:     Adaptive,
		backend:    xdpsys.Real{},
	}
}

func (b *Builder) WithInterface(name string) *Builder { b.interfaceName = name; return b }
func (b *Builder) WithQueueID(id uint32) *Builder      { b.queueID = id; return b }
func (b *Builder) WithFrameCount(n uint32) *Builder    { b.frameCount = n; return b }
func (b *Builder) WithFrameSize(n uint32) *Builder     { b.frameSize = n; return b }
func (b *Builder) WithBindFlags(flags uint16) *Builder { b.bindFlags = flags; return b }
func (b *Builder) WithBatchSize(n int) *Builder        { b.batchSize = n; return b }
func (b *Builder) WithPoller(p PollStrategy) *Builder  { b.poller = p; return b }

// WithSimulator swaps the real kernel backend for the in-process simulator,
// so BuildRaw runs the identical seven-step sequence against simxdp instead
// of the kernel.
func (b *Builder) WithSimulator() *Builder { b.backend = simxdp.Backend{}; return b }

// BatchSize returns the configured batch size, read by Engine.
func (b *Builder) BatchSize() int { return b.batchSize }

// Poller returns the configured polling strategy, read by Engine.
func (b *Builder) Poller() PollStrategy { return b.poller }

// BuildRaw performs the seven ordered steps and returns an assembled
// RawHandle, or unwinds everything already acquired and returns the first
// error.
func (b *Builder) BuildRaw() (*RawHandle, error) {
	if b.frameCount == 0 || bits.OnesCount32(b.frameCount) != 1 {
		return nil, fmt.Errorf("af_xdp: build: frame count %d is not a power of two", b.frameCount)
	}

	layout, err := umem.NewLayout(b.frameSize, b.frameCount)
	if err != nil {
		return nil, fmt.Errorf("af_xdp: build: %w", err)
	}

	region, err := umem.NewRegion(layout)
	if err != nil {
		return nil, fmt.Errorf("af_xdp: create umem: %w", err)
	}
	cleanup := []func(){func() { _ = region.Close() }}
	unwind := func(err error) (*RawHandle, error) {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
		return nil, err
	}

	sock, err := b.backend.Open()
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: create socket: %w", err))
	}
	cleanup = append(cleanup, func() { _ = sock.Close() })

	base := region.Base()
	addr := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(base))))
	if err := sock.SetUmemReg(addr, layout.Size(), layout.FrameSize, 0); err != nil {
		return unwind(fmt.Errorf("af_xdp: register umem: %w", err))
	}

	ringSize := b.frameCount
	for opt, label := range map[int]string{
		xdpabi.RxRingOpt:         "rx",
		xdpabi.TxRingOpt:         "tx",
		xdpabi.UmemFillRingOpt:   "fill",
		xdpabi.UmemCompletionOpt: "completion",
	} {
		if err := sock.SetRingSize(opt, ringSize); err != nil {
			return unwind(fmt.Errorf("af_xdp: set %s ring size: %w", label, err))
		}
	}

	offsets, err := sock.MmapOffsets()
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: get mmap offsets: %w", err))
	}

	rxMem, err := mapRing(sock, offsets.RX, ringSize, descElemSize, xdpabi.PgoffRX)
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: mmap rx ring: %w", err))
	}
	cleanup = append(cleanup, func() { _ = sock.UnmapRing(rxMem) })

	txMem, err := mapRing(sock, offsets.TX, ringSize, descElemSize, xdpabi.PgoffTX)
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: mmap tx ring: %w", err))
	}
	cleanup = append(cleanup, func() { _ = sock.UnmapRing(txMem) })

	fillMem, err := mapRing(sock, offsets.Fill, ringSize, addrElemSize, xdpabi.PgoffFill)
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: mmap fill ring: %w", err))
	}
	cleanup = append(cleanup, func() { _ = sock.UnmapRing(fillMem) })

	compMem, err := mapRing(sock, offsets.Comp, ringSize, addrElemSize, xdpabi.PgoffComp)
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: mmap completion ring: %w", err))
	}
	cleanup = append(cleanup, func() { _ = sock.UnmapRing(compMem) })

	ifIndex, err := b.backend.ResolveIfIndex(b.interfaceName)
	if err != nil {
		return unwind(fmt.Errorf("af_xdp: resolve interface: %w", err))
	}
	if err := sock.Bind(ifIndex, b.queueID, b.bindFlags); err != nil {
		return unwind(fmt.Errorf("af_xdp: bind: %w", err))
	}

	handle := newRawHandle(sock, region, layout, ringSize, offsets, rxMem, txMem, fillMem, compMem)
	return handle, nil
}

// Build assembles a RawHandle and wraps it in an Engine ready to Run.
func (b *Builder) Build() (*Engine, error) {
	raw, err := b.BuildRaw()
	if err != nil {
		return nil, err
	}
	return NewEngine(raw, b.batchSize, b.poller), nil
}

func mapRing(sock backend.Socket, off xdpabi.RingOffsets, ringSize uint32, elemSize int, pageOffset uint64) ([]byte, error) {
	length := int(off.Desc) + int(ringSize)*elemSize
	return sock.MmapRing(length, pageOffset)
}
