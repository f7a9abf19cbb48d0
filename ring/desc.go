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

// Package ring implements the lock-free SPSC descriptor rings shared with
// the kernel (or the simulator) across the AF_XDP boundary.
package ring

// Descriptor is the RX/TX ring slot layout: a UMEM frame address, the
// packet length within that frame, and kernel-defined per-packet options.
type Descriptor struct {
	Addr    uint64
	Len     uint32
	Options uint32
}

// Action classifies what the Engine should do with a received packet once
// the user callback has looked at it. The zero value is Drop, matching the
// "default action is Drop" invariant.
type Action int

const (
	Drop Action = iota
	Tx
)

// Slot is the set of types that may occupy a ring's descriptor array: RX/TX
// rings carry Descriptor, FILL/COMPLETION rings carry bare frame addresses.
type Slot interface {
	Descriptor | uint64
}
