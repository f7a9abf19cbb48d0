//go:build linux

// Package xdpsys is the OS shim: socket creation, option set, memory
// mapping and wake syscalls for the real AF_XDP kernel backend. It owns no
// policy — Builder decides what to register and in what order; this
// package only translates those decisions into syscalls.
package xdpsys

import (
	"fmt"
	"unsafe"

	"github.com/afxdp-go/afxdp/aferr"
	"github.com/afxdp-go/afxdp/xdpabi"
	"golang.org/x/sys/unix"
)

// AF_XDP socket family/protocol constants. golang.org/x/sys/unix doesn't
// name these on every platform build, so they're pinned here against
// linux/if_xdp.h directly, matching the raw-libc translation this shim is
// grounded on.
const (
	afXDP  = 44
	solXDP = 283
)

// NewSocket creates a raw AF_XDP socket.
func NewSocket() (int, error) {
	fd, err := unix.Socket(afXDP, unix.SOCK_RAW, 0)
	if err != nil {
		return -1, aferr.Wrap("create socket", err)
	}
	return fd, nil
}

// SetUmemReg registers a UMEM region with the socket (XDP_UMEM_REG).
func SetUmemReg(fd int, addr, length uint64, chunkSize, headroom uint32) error {
	reg := xdpabi.UmemReg{Addr: addr, Len: length, ChunkSize: chunkSize, Headroom: headroom}
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(fd), uintptr(solXDP), uintptr(xdpabi.UmemRegOpt),
		uintptr(unsafe.Pointer(&reg)), unsafe.Sizeof(reg), 0)
	if errno != 0 {
		return aferr.Wrap("register umem", errno)
	}
	return nil
}

// SetRingSize sets one ring's descriptor count (XDP_{RX,TX,UMEM_FILL,UMEM_COMPLETION}_RING).
func SetRingSize(fd int, opt int, size uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(fd), uintptr(solXDP), uintptr(opt),
		uintptr(unsafe.Pointer(&size)), unsafe.Sizeof(size), 0)
	if errno != 0 {
		return aferr.Wrap(fmt.Sprintf("set ring size (opt=%d)", opt), errno)
	}
	return nil
}

// MmapOffsets retrieves the kernel's ring layout (XDP_MMAP_OFFSETS).
func MmapOffsets(fd int) (xdpabi.MmapOffsets, error) {
	var off xdpabi.MmapOffsets
	size := unsafe.Sizeof(off)
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT, uintptr(fd), uintptr(solXDP), uintptr(xdpabi.MmapOffsetsOpt),
		uintptr(unsafe.Pointer(&off)), uintptr(unsafe.Pointer(&size)), 0)
	if errno != 0 {
		return xdpabi.MmapOffsets{}, aferr.Wrap("get mmap offsets", errno)
	}
	return off, nil
}

// MmapRing maps len bytes of ring memory at the given fixed page offset.
func MmapRing(fd int, length int, pageOffset uint64) ([]byte, error) {
	mem, err := unix.Mmap(fd, int64(pageOffset), length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, aferr.Wrap("mmap ring", err)
	}
	return mem, nil
}

// UnmapRing releases a ring mapping obtained from MmapRing.
func UnmapRing(mem []byte) error {
	if mem == nil {
		return nil
	}
	return aferr.Wrap("munmap ring", unix.Munmap(mem))
}

// BindSocket resolves nothing itself; it binds fd to (ifIndex, queueID)
// with the given bind flags.
func BindSocket(fd int, ifIndex, queueID uint32, bindFlags uint16) error {
	sa := xdpabi.SockaddrXdp{Family: afXDP, Flags: bindFlags, IfIndex: ifIndex, QueueID: queueID}
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa))
	if errno != 0 {
		return aferr.Wrap("bind", errno)
	}
	return nil
}

// WakeTX issues the non-blocking transmit wake syscall. WouldBlock is
// benign: it only means the kernel was already busy draining TX.
func WakeTX(fd int) error {
	err := unix.Sendto(fd, nil, unix.MSG_DONTWAIT, nil)
	if err != nil && err != unix.EAGAIN && err != unix.EWOULDBLOCK {
		return aferr.Wrap("wake tx", err)
	}
	return nil
}

// WakeRX polls fd for readability with the given timeout (milliseconds);
// the Engine always passes 0 (non-blocking).
func WakeRX(fd int, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		return false, aferr.Wrap("wake rx", err)
	}
	return n > 0, nil
}

// Close closes the socket.
func Close(fd int) error {
	return aferr.Wrap("close socket", unix.Close(fd))
}
