//go:build linux

package xdpsys

import (
	"net"

	"github.com/afxdp-go/afxdp/internal/backend"
	"github.com/afxdp-go/afxdp/xdpabi"
)

// Real is the linux backend.Backend, opening genuine AF_XDP sockets.
type Real struct{}

func (Real) Open() (backend.Socket, error) {
	fd, err := NewSocket()
	if err != nil {
		return nil, err
	}
	return socket{fd: fd}, nil
}

// ResolveIfIndex resolves a real network interface name via the kernel.
func (Real) ResolveIfIndex(name string) (uint32, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, err
	}
	return uint32(iface.Index), nil
}

type socket struct{ fd int }

func (s socket) FD() int { return s.fd }

func (s socket) SetUmemReg(addr, length uint64, chunkSize, headroom uint32) error {
	return SetUmemReg(s.fd, addr, length, chunkSize, headroom)
}

func (s socket) SetRingSize(opt int, size uint32) error { return SetRingSize(s.fd, opt, size) }

func (s socket) MmapOffsets() (xdpabi.MmapOffsets, error) { return MmapOffsets(s.fd) }

func (s socket) MmapRing(length int, pageOffset uint64) ([]byte, error) {
	return MmapRing(s.fd, length, pageOffset)
}

func (s socket) UnmapRing(mem []byte) error { return UnmapRing(mem) }

func (s socket) Bind(ifIndex, queueID uint32, bindFlags uint16) error {
	return BindSocket(s.fd, ifIndex, queueID, bindFlags)
}

func (s socket) WakeTX() error { return WakeTX(s.fd) }

func (s socket) WakeRX(timeoutMs int) (bool, error) { return WakeRX(s.fd, timeoutMs) }

func (s socket) Close() error { return Close(s.fd) }
