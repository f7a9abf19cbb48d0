package afxdp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/afxdp-go/afxdp/ring"
	"github.com/afxdp-go/afxdp/simxdp"
	"github.com/afxdp-go/afxdp/xdpabi"
)

func newSimEngine(t *testing.T, frameCount uint32) *Engine {
	t.Helper()
	t.Cleanup(simxdp.ResetRegistry)
	engine, err := newSimBuilder(frameCount).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func buildIPv4UDPFrame(t *testing.T, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()
	udp := make([]byte, 8+len(payload))
	udp[0], udp[1] = byte(srcPort>>8), byte(srcPort)
	udp[2], udp[3] = byte(dstPort>>8), byte(dstPort)
	l := uint16(len(udp))
	udp[4], udp[5] = byte(l>>8), byte(l)
	copy(udp[8:], payload)

	ip := make([]byte, 20+len(udp))
	ip[0] = 0x45
	tot := uint16(len(ip))
	ip[2], ip[3] = byte(tot>>8), byte(tot)
	ip[9] = 17 // UDP
	copy(ip[20:], udp)

	eth := make([]byte, 14+len(ip))
	eth[12], eth[13] = 0x08, 0x00
	copy(eth[14:], ip)
	return eth
}

// TestEngineEchoesBackToTx mirrors the echo scenario: every received packet
// is sent straight back out.
func TestEngineEchoesBackToTx(t *testing.T) {
	engine := newSimEngine(t, 64)
	fd := engine.Raw().FD()

	payload := buildIPv4UDPFrame(t, 1111, 2222, []byte{1, 2, 3, 4})
	require.NoError(t, simxdp.InjectPacket(fd, payload))

	consumed := engine.ProcessBatch(func(b *Batch) {
		require.Equal(t, 1, b.Len())
		b.At(0).Send()
	})
	require.Equal(t, 1, consumed)

	out, err := simxdp.ReadTXPacket(fd)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

// TestEngineDropRecyclesFrameToFill verifies a dropped packet's frame comes
// back onto FILL instead of leaking, and nothing reaches TX.
func TestEngineDropRecyclesFrameToFill(t *testing.T) {
	engine := newSimEngine(t, 64)
	fd := engine.Raw().FD()
	availableBefore := engine.Raw().fill.Available()

	require.NoError(t, simxdp.InjectPacket(fd, []byte{9, 9, 9}))

	consumed := engine.ProcessBatch(func(b *Batch) {
		b.At(0).Drop()
	})
	require.Equal(t, 1, consumed)

	_, err := simxdp.ReadTXPacket(fd)
	require.Error(t, err, "a dropped packet must never reach tx")
	require.Equal(t, availableBefore, engine.Raw().fill.Available(), "the frame must be recycled back onto fill")
}

// TestEngineClassifiesMixedBatch exercises a batch where some packets are
// sent and others dropped, checking each lands in the right place.
func TestEngineClassifiesMixedBatch(t *testing.T) {
	engine := newSimEngine(t, 64)
	fd := engine.Raw().FD()

	require.NoError(t, simxdp.InjectPacket(fd, []byte{1}))
	require.NoError(t, simxdp.InjectPacket(fd, []byte{2}))
	require.NoError(t, simxdp.InjectPacket(fd, []byte{3}))

	consumed := engine.ProcessBatch(func(b *Batch) {
		require.Equal(t, 3, b.Len())
		b.At(0).Send()
		b.At(1).Drop()
		b.At(2).Send()
	})
	require.Equal(t, 3, consumed)

	first, err := simxdp.ReadTXPacket(fd)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, first)

	second, err := simxdp.ReadTXPacket(fd)
	require.NoError(t, err)
	require.Equal(t, []byte{3}, second)

	_, err = simxdp.ReadTXPacket(fd)
	require.Error(t, err, "the dropped middle packet must not appear on tx")
}

// TestEngineTxBackpressureDropsWhenFull forces every tx-classified packet in
// a batch to fail its reservation and checks the engine falls back to
// dropping all of them rather than sending a partial batch.
func TestEngineTxBackpressureDropsWhenFull(t *testing.T) {
	engine := newSimEngine(t, 8)
	fd := engine.Raw().FD()

	// Mark the tx ring as already full (8 of 8 slots outstanding) without
	// going through a real send, so commitTx's Reserve call is forced to fail.
	require.NoError(t, simxdp.SetRingCursors(fd, xdpabi.TxRingOpt, 8, 0))

	require.NoError(t, simxdp.InjectPacket(fd, []byte{7, 7}))
	consumed := engine.ProcessBatch(func(b *Batch) {
		b.At(0).Send()
	})
	require.Equal(t, 1, consumed)
	require.Equal(t, ring.Drop, engine.actions[0], "tx reservation failure must fall back to drop, not a partial send")
}

// TestEngineRingWrapsAcrossUint32Boundary drives RX/FILL/TX/COMPLETION
// cursors across the 2^32 wraparound point and checks a batch cycle still
// behaves correctly immediately after.
func TestEngineRingWrapsAcrossUint32Boundary(t *testing.T) {
	engine := newSimEngine(t, 8)
	fd := engine.Raw().FD()

	nearWrap := ^uint32(0) - 1
	for _, opt := range []int{xdpabi.RxRingOpt, xdpabi.TxRingOpt, xdpabi.UmemCompletionOpt} {
		require.NoError(t, simxdp.SetRingCursors(fd, opt, nearWrap, nearWrap))
	}
	// Fill keeps four buffers outstanding so InjectPacket has somewhere to
	// land each frame; its producer has already wrapped past zero.
	require.NoError(t, simxdp.SetRingCursors(fd, xdpabi.UmemFillRingOpt, nearWrap+4, nearWrap))

	// Four packets one by one move every cursor from 2^32-2 through zero.
	for i := byte(0); i < 4; i++ {
		require.NoError(t, simxdp.InjectPacket(fd, []byte{4, i}))
		consumed := engine.ProcessBatch(func(b *Batch) {
			require.Equal(t, 1, b.Len())
			b.At(0).Send()
		})
		require.Equal(t, 1, consumed)

		out, err := simxdp.ReadTXPacket(fd)
		require.NoError(t, err)
		require.Equal(t, []byte{4, i}, out)
	}
}

// TestEngineParsesIPv4UDPPayload exercises PacketRef's header-decode chain
// against a real frame delivered through the simulator.
func TestEngineParsesIPv4UDPPayload(t *testing.T) {
	engine := newSimEngine(t, 64)
	fd := engine.Raw().FD()

	frame := buildIPv4UDPFrame(t, 5555, 53, []byte{0xDE, 0xAD})
	require.NoError(t, simxdp.InjectPacket(fd, frame))

	var gotSrc, gotDst uint16
	var gotPayload []byte
	consumed := engine.ProcessBatch(func(b *Batch) {
		udp, payload, ok := b.At(0).UDP()
		require.True(t, ok)
		gotSrc, gotDst = udp.SrcPort(), udp.DstPort()
		gotPayload = append([]byte(nil), payload...)
		b.At(0).Drop()
	})
	require.Equal(t, 1, consumed)
	require.EqualValues(t, 5555, gotSrc)
	require.EqualValues(t, 53, gotDst)
	require.Equal(t, []byte{0xDE, 0xAD}, gotPayload)
}

// TestEngineParsesIPv4TCPAndICMPPayloads exercises PacketRef.TCP and
// PacketRef.ICMP against real frames delivered through the simulator.
func TestEngineParsesIPv4TCPAndICMPPayloads(t *testing.T) {
	engine := newSimEngine(t, 64)
	fd := engine.Raw().FD()

	tcpPayload := []byte{0xAA, 0xBB}
	tcp := make([]byte, 20+len(tcpPayload))
	tcp[0], tcp[1] = 0x1F, 0x90 // src port 8080
	tcp[2], tcp[3] = 0x00, 0x50 // dst port 80
	tcp[12] = 5 << 4            // data offset 5 (no options)
	copy(tcp[20:], tcpPayload)

	ip := make([]byte, 20+len(tcp))
	ip[0] = 0x45
	tot := uint16(len(ip))
	ip[2], ip[3] = byte(tot>>8), byte(tot)
	ip[9] = 6 // TCP
	copy(ip[20:], tcp)

	eth := make([]byte, 14+len(ip))
	eth[12], eth[13] = 0x08, 0x00
	copy(eth[14:], ip)

	require.NoError(t, simxdp.InjectPacket(fd, eth))

	var gotSrc, gotDst uint16
	var gotTCPPayload []byte
	consumed := engine.ProcessBatch(func(b *Batch) {
		h, payload, ok := b.At(0).TCP()
		require.True(t, ok)
		gotSrc, gotDst = h.SrcPort(), h.DstPort()
		gotTCPPayload = append([]byte(nil), payload...)
		b.At(0).Drop()
	})
	require.Equal(t, 1, consumed)
	require.EqualValues(t, 8080, gotSrc)
	require.EqualValues(t, 80, gotDst)
	require.Equal(t, tcpPayload, gotTCPPayload)

	icmpPayload := []byte{0x01, 0x02, 0x03, 0x04}
	icmp := make([]byte, 4+len(icmpPayload))
	icmp[0] = 8 // echo request
	icmp[1] = 0
	copy(icmp[4:], icmpPayload)

	ip2 := make([]byte, 20+len(icmp))
	ip2[0] = 0x45
	tot2 := uint16(len(ip2))
	ip2[2], ip2[3] = byte(tot2>>8), byte(tot2)
	ip2[9] = 1 // ICMP
	copy(ip2[20:], icmp)

	eth2 := make([]byte, 14+len(ip2))
	eth2[12], eth2[13] = 0x08, 0x00
	copy(eth2[14:], ip2)

	require.NoError(t, simxdp.InjectPacket(fd, eth2))

	var gotKind byte
	var gotICMPPayload []byte
	consumed = engine.ProcessBatch(func(b *Batch) {
		h, payload, ok := b.At(0).ICMP()
		require.True(t, ok)
		gotKind = h.Kind
		gotICMPPayload = append([]byte(nil), payload...)
		b.At(0).Drop()
	})
	require.Equal(t, 1, consumed)
	require.EqualValues(t, 8, gotKind)
	require.Equal(t, icmpPayload, gotICMPPayload)
}

func TestEngineAdjustHeadRejectsOutOfBounds(t *testing.T) {
	engine := newSimEngine(t, 64)
	fd := engine.Raw().FD()
	require.NoError(t, simxdp.InjectPacket(fd, []byte{1, 2, 3, 4}))

	engine.ProcessBatch(func(b *Batch) {
		ref := b.At(0)
		require.Error(t, ref.AdjustHead(-(ref.headroom + 1)), "must reject shifting before the frame start")
		require.Error(t, ref.AdjustHead(len(ref.frame)), "must reject shifting past the frame end")
		ref.Drop()
	})
}
