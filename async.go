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
	"context"
)

// pollTimeoutMs is how long each readiness wait blocks before AsyncRx.Recv
// rechecks ctx for cancellation.
const pollTimeoutMs = 50

// AsyncRx wraps RxHalf in a readiness-registration primitive: Recv blocks
// the calling goroutine until the socket is readable and RX actually
// yields packets, instead of spinning.
type AsyncRx struct {
	rx *RxHalf
}

// NewAsyncRx wraps rx, polling its socket for readability.
func NewAsyncRx(rx *RxHalf) *AsyncRx { return &AsyncRx{rx: rx} }

// Recv awaits readable readiness, drains up to max packets, and returns on
// the first non-empty result, or ctx.Err() if ctx is cancelled first.
func (a *AsyncRx) Recv(ctx context.Context, max int) ([]*Packet, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		ready, err := a.rx.sock.WakeRX(pollTimeoutMs)
		if err != nil {
			return nil, err
		}
		if !ready {
			continue
		}
		if pkts := a.rx.Recv(max); len(pkts) > 0 {
			return pkts, nil
		}
	}
}

// PollRecv is the non-blocking, single-shot variant for manual event-loop
// integration: it checks readiness once and returns immediately either way.
func (a *AsyncRx) PollRecv(max int) ([]*Packet, bool, error) {
	ready, err := a.rx.sock.WakeRX(0)
	if err != nil || !ready {
		return nil, false, err
	}
	pkts := a.rx.Recv(max)
	return pkts, len(pkts) > 0, nil
}

// AsyncTx wraps TxHalf's transmit-wake step behind the same readiness
// model, issuing the wake syscall only when the ring's flags actually
// request it rather than unconditionally.
type AsyncTx struct {
	tx *TxHalf
}

// NewAsyncTx wraps tx.
func NewAsyncTx(tx *TxHalf) *AsyncTx { return &AsyncTx{tx: tx} }

// Flush reclaims completed frames and, if the TX ring's flags request it,
// issues the transmit wake syscall, returning ctx.Err() if cancelled first.
func (a *AsyncTx) Flush(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	a.tx.reclaim()
	if a.tx.needsWakeup() {
		return a.tx.sock.WakeTX()
	}
	return nil
}
