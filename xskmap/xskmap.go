// Package xskmap is the thin collaborator contract between this library and
// an externally loaded XDP redirect program: once a socket is bound to a
// queue, its file descriptor must be published into that program's XSKMAP
// so the kernel knows where to redirect frames for that queue. Loading and
// attaching the program itself is someone else's job.
package xskmap

import "github.com/cilium/ebpf"

// Update publishes fd as the socket for queueID in m.
func Update(m *ebpf.Map, queueID uint32, fd int) error {
	return m.Update(queueID, uint32(fd), ebpf.UpdateAny)
}
