package afxdp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/afxdp-go/afxdp/simxdp"
)

func newSimBuilder(frameCount uint32) *Builder {
	return NewBuilder().
		WithSimulator().
		WithInterface("eth0").
		WithFrameCount(frameCount).
		WithFrameSize(2048).
		WithBatchSize(8)
}

func TestBuildRawAgainstSimulator(t *testing.T) {
	t.Cleanup(simxdp.ResetRegistry)

	raw, err := newSimBuilder(64).BuildRaw()
	require.NoError(t, err)
	defer raw.Close()

	require.EqualValues(t, 64, raw.Layout().FrameCount)
	require.EqualValues(t, 2048, raw.Layout().FrameSize)
	require.False(t, raw.RxNeedsWakeup())
}

func TestBuildRejectsNonPowerOfTwoFrameCount(t *testing.T) {
	t.Cleanup(simxdp.ResetRegistry)

	_, err := newSimBuilder(100).BuildRaw()
	require.Error(t, err)
}

func TestBuildWiresFillRingFromEngine(t *testing.T) {
	t.Cleanup(simxdp.ResetRegistry)

	engine, err := newSimBuilder(16).Build()
	require.NoError(t, err)
	defer engine.Close()

	raw := engine.Raw()
	require.Zero(t, raw.fill.Available(), "seedFill must arm every frame in the pool")
}
