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
	"runtime"
	"sync/atomic"
	"time"

	"github.com/afxdp-go/afxdp/ring"
)

// completionDrainBatch bounds how many COMPLETION slots Engine drains into
// FILL per cycle.
const completionDrainBatch = 32

// AdaptiveSpinWindow and WaitSleep are the Adaptive polling strategy's
// two-phase timing, named constants so they live in exactly one place.
const (
	AdaptiveSpinWindow = 50 * time.Microsecond
	WaitSleep          = 1 * time.Millisecond
)

// Engine owns a RawHandle and drives its batch cycle under a polling
// strategy. It is single-threaded per socket: ProcessBatch is sequential
// and must not be called concurrently with itself.
type Engine struct {
	raw       *RawHandle
	batchSize int
	poller    PollStrategy

	descs   []ring.Descriptor
	actions []ring.Action
	refs    []PacketRef

	lastActivity time.Time
}

// NewEngine wraps raw in an Engine with the given batch size and polling
// strategy, and seeds FILL with every frame address in raw's layout.
func NewEngine(raw *RawHandle, batchSize int, poller PollStrategy) *Engine {
	e := &Engine{
		raw:       raw,
		batchSize: batchSize,
		poller:    poller,
		descs:     make([]ring.Descriptor, batchSize),
		actions:   make([]ring.Action, batchSize),
		refs:      make([]PacketRef, batchSize),
	}
	e.seedFill()
	return e
}

// seedFill arms FILL with every frame address the UMEM layout describes,
// as many as fit if the ring is smaller than frame_count.
func (e *Engine) seedFill() {
	layout := e.raw.layout
	remaining := layout.FrameCount
	var idx uint32
	const chunk = 1024
	for remaining > 0 {
		n := remaining
		if n > chunk {
			n = chunk
		}
		base, ok := e.raw.fill.Reserve(n)
		if !ok {
			n = e.raw.fill.Available()
			if n == 0 {
				return
			}
			base, ok = e.raw.fill.Reserve(n)
			if !ok {
				return
			}
		}
		for i := uint32(0); i < n; i++ {
			addr, _ := layout.IdxToAddr(idx)
			e.raw.fill.WriteAt(base+i, addr)
			idx++
		}
		e.raw.fill.Submit(base + n)
		remaining -= n
	}
}

// Raw returns the underlying RawHandle.
func (e *Engine) Raw() *RawHandle { return e.raw }

// ProcessBatch runs one batch cycle and returns the number of descriptors
// consumed from RX.
func (e *Engine) ProcessBatch(callback BatchFunc) int {
	e.drainCompletionIntoFill()

	n, startIdx := e.raw.rx.Peek(uint32(e.batchSize))
	if n == 0 {
		if e.raw.RxNeedsWakeup() {
			_, _ = e.raw.WakeRX(0)
		}
		return 0
	}

	layout := e.raw.layout
	for i := uint32(0); i < n; i++ {
		desc := e.raw.rx.ReadAt(startIdx + i)
		e.descs[i] = desc
		e.actions[i] = ring.Drop

		frameBase := desc.Addr - desc.Addr%uint64(layout.FrameSize)
		frame, ok := e.raw.region.FrameAt(frameBase)
		headroom := int(desc.Addr - frameBase)
		ln := desc.Len
		if !ok {
			frame = nil
			headroom = 0
			ln = 0
		}
		e.refs[i] = PacketRef{frame: frame, headroom: headroom, ln: ln, frameBase: frameBase, action: &e.actions[i]}
	}
	e.raw.rx.Release(n)

	batch := &Batch{refs: e.refs[:n]}
	callback(batch)

	e.commitTx(n)
	e.recycleFill(n)

	e.lastActivity = time.Now()
	return int(n)
}

func (e *Engine) drainCompletionIntoFill() {
	n, idx := e.raw.comp.Peek(completionDrainBatch)
	if n == 0 {
		return
	}
	if base, ok := e.raw.fill.Reserve(n); ok {
		for i := uint32(0); i < n; i++ {
			e.raw.fill.WriteAt(base+i, e.raw.comp.ReadAt(idx+i))
		}
		e.raw.fill.Submit(base + n)
	}
	e.raw.comp.Release(n)
}

func (e *Engine) commitTx(n uint32) {
	var txCount uint32
	for i := uint32(0); i < n; i++ {
		if e.actions[i] == ring.Tx {
			txCount++
		}
	}
	if txCount == 0 {
		return
	}

	base, ok := e.raw.tx.Reserve(txCount)
	if !ok {
		for i := uint32(0); i < n; i++ {
			if e.actions[i] == ring.Tx {
				e.actions[i] = ring.Drop
			}
		}
		return
	}
	var w uint32
	for i := uint32(0); i < n; i++ {
		if e.actions[i] != ring.Tx {
			continue
		}
		e.raw.tx.WriteAt(base+w, ring.Descriptor{Addr: e.refs[i].Addr(), Len: e.refs[i].ln})
		w++
	}
	e.raw.tx.Submit(base + w)
	if e.raw.TxNeedsWakeup() {
		_ = e.raw.WakeTX()
	}
}

func (e *Engine) recycleFill(n uint32) {
	var dropCount uint32
	for i := uint32(0); i < n; i++ {
		if e.actions[i] == ring.Drop {
			dropCount++
		}
	}
	if dropCount == 0 {
		return
	}
	base, ok := e.raw.fill.Reserve(dropCount)
	if !ok {
		return // frames leak from the pool for this cycle only, by design
	}
	var w uint32
	for i := uint32(0); i < n; i++ {
		if e.actions[i] != ring.Drop {
			continue
		}
		e.raw.fill.WriteAt(base+w, e.refs[i].frameBase)
		w++
	}
	e.raw.fill.Submit(base + w)
}

// Run drives ProcessBatch until stop is set, checked cooperatively at the
// top of every cycle, applying the Engine's polling strategy between
// cycles.
func (e *Engine) Run(stop *atomic.Bool, callback BatchFunc) {
	for !stop.Load() {
		n := e.ProcessBatch(callback)
		e.wait(n)
	}
}

func (e *Engine) wait(consumed int) {
	switch e.poller {
	case Busy:
		return
	case Wait:
		if consumed == 0 {
			time.Sleep(WaitSleep)
		}
	case Adaptive:
		if consumed > 0 {
			return
		}
		if time.Since(e.lastActivity) < AdaptiveSpinWindow {
			runtime.Gosched()
		} else {
			time.Sleep(WaitSleep)
		}
	}
}

// Close releases the Engine's RawHandle.
func (e *Engine) Close() error { return e.raw.Close() }
