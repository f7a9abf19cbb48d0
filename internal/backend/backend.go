// Package backend defines the seam between Builder and the two concrete
// AF_XDP backends: the real kernel shim (internal/xdpsys), which only works
// on Linux, and the in-process simulator (simxdp). Builder only
// ever talks to this interface, so build_raw()'s sequence is identical
// regardless of which backend answers it.
package backend

import "github.com/afxdp-go/afxdp/xdpabi"

// Socket is one open AF_XDP file descriptor and the operations Builder
// drives it through, in the order it drives them: create, register UMEM,
// size each ring, fetch the kernel's ring layout, map each ring, bind.
type Socket interface {
	SetUmemReg(addr, length uint64, chunkSize, headroom uint32) error
	SetRingSize(opt int, size uint32) error
	MmapOffsets() (xdpabi.MmapOffsets, error)
	MmapRing(length int, pageOffset uint64) ([]byte, error)
	UnmapRing(mem []byte) error
	Bind(ifIndex, queueID uint32, bindFlags uint16) error
	WakeTX() error
	WakeRX(timeoutMs int) (bool, error)
	Close() error
	FD() int
}

// Backend opens sockets and resolves interface names to indices. Each
// Builder holds one implementation: the real one by default (its Open fails
// with aferr.ErrUnsupportedOS outside linux), or the simulator, selected on
// any OS via Builder.WithSimulator.
type Backend interface {
	Open() (Socket, error)
	ResolveIfIndex(name string) (uint32, error)
}
