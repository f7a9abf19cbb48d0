//go:build !linux

package xdpsys

import (
	"github.com/afxdp-go/afxdp/aferr"
	"github.com/afxdp-go/afxdp/internal/backend"
)

// Real is unavailable outside linux; Open always fails with ErrUnsupportedOS
// so callers fall back to the simulator explicitly rather than silently.
type Real struct{}

func (Real) Open() (backend.Socket, error) { return nil, aferr.ErrUnsupportedOS }

func (Real) ResolveIfIndex(name string) (uint32, error) { return 0, aferr.ErrUnsupportedOS }
