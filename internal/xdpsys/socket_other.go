//go:build !linux

package xdpsys

import (
	"github.com/afxdp-go/afxdp/aferr"
	"github.com/afxdp-go/afxdp/xdpabi"
)

func NewSocket() (int, error) { return -1, aferr.ErrUnsupportedOS }

func SetUmemReg(fd int, addr, length uint64, chunkSize, headroom uint32) error {
	return aferr.ErrUnsupportedOS
}

func SetRingSize(fd int, opt int, size uint32) error { return aferr.ErrUnsupportedOS }

func MmapOffsets(fd int) (xdpabi.MmapOffsets, error) {
	return xdpabi.MmapOffsets{}, aferr.ErrUnsupportedOS
}

func MmapRing(fd int, length int, pageOffset uint64) ([]byte, error) {
	return nil, aferr.ErrUnsupportedOS
}

func UnmapRing(mem []byte) error { return aferr.ErrUnsupportedOS }

func BindSocket(fd int, ifIndex, queueID uint32, bindFlags uint16) error {
	return aferr.ErrUnsupportedOS
}

func WakeTX(fd int) error { return aferr.ErrUnsupportedOS }

func WakeRX(fd int, timeoutMs int) (bool, error) { return false, aferr.ErrUnsupportedOS }

func Close(fd int) error { return aferr.ErrUnsupportedOS }
