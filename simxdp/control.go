package simxdp

import (
	"fmt"

	"github.com/afxdp-go/afxdp/ring"
	"github.com/afxdp-go/afxdp/xdpabi"
)

// InjectPacket mimics a frame arriving from the wire: it consumes one
// buffer the application already parked on the FILL ring, copies data into
// it, and publishes the result on the RX ring. It fails if the application
// hasn't supplied a FILL buffer, exactly as a real NIC would drop the
// frame when the FILL ring is empty.
func InjectPacket(fd int, data []byte) error {
	mu.Lock()
	defer mu.Unlock()

	s, err := lookupSocket(fd)
	if err != nil {
		return err
	}
	if s.fillRing == nil || s.rxRing == nil {
		return fmt.Errorf("simxdp: fill or rx ring not mapped")
	}

	fillElem := elemSizeForOffset(xdpabi.PgoffFill)
	fillMask := ringMask(s.fillRing, fillElem)
	fillProd, fillCons, _ := ringWords(s.fillRing)
	if *fillCons == *fillProd {
		return fmt.Errorf("simxdp: rx dropped, no buffers in fill ring")
	}
	idx := *fillCons
	addrPtr := (*uint64)(descSlotAddr(s.fillRing, idx, fillMask, fillElem))
	addr := *addrPtr
	*fillCons = *fillCons + 1

	um := s.umem()
	if um == nil || int(addr)+len(data) > len(um) {
		return fmt.Errorf("simxdp: frame at addr %d too small for %d-byte packet", addr, len(data))
	}
	copy(um[addr:], data)

	rxElem := elemSizeForOffset(xdpabi.PgoffRX)
	rxMask := ringMask(s.rxRing, rxElem)
	rxProd, _, _ := ringWords(s.rxRing)
	rxIdx := *rxProd
	desc := (*ring.Descriptor)(descSlotAddr(s.rxRing, rxIdx, rxMask, rxElem))
	*desc = ring.Descriptor{Addr: addr, Len: uint32(len(data))}
	*rxProd = *rxProd + 1
	return nil
}

// ReadTXPacket pops the next frame the application queued for transmit,
// copies its bytes out, and immediately auto-completes it onto the
// completion ring — standing in for a NIC that transmits instantly.
func ReadTXPacket(fd int) ([]byte, error) {
	mu.Lock()
	defer mu.Unlock()

	s, err := lookupSocket(fd)
	if err != nil {
		return nil, err
	}
	if s.txRing == nil || s.compRing == nil {
		return nil, fmt.Errorf("simxdp: tx or completion ring not mapped")
	}

	txElem := elemSizeForOffset(xdpabi.PgoffTX)
	txMask := ringMask(s.txRing, txElem)
	txProd, txCons, _ := ringWords(s.txRing)
	if *txCons == *txProd {
		return nil, fmt.Errorf("simxdp: no packets in tx ring")
	}
	idx := *txCons
	desc := *(*ring.Descriptor)(descSlotAddr(s.txRing, idx, txMask, txElem))
	*txCons = *txCons + 1

	um := s.umem()
	start, end := int(desc.Addr), int(desc.Addr)+int(desc.Len)
	if um == nil || end > len(um) {
		return nil, fmt.Errorf("simxdp: tx descriptor out of bounds of umem")
	}
	out := make([]byte, desc.Len)
	copy(out, um[start:end])

	compElem := elemSizeForOffset(xdpabi.PgoffComp)
	compMask := ringMask(s.compRing, compElem)
	compProd, _, _ := ringWords(s.compRing)
	compIdx := *compProd
	addrPtr := (*uint64)(descSlotAddr(s.compRing, compIdx, compMask, compElem))
	*addrPtr = desc.Addr
	*compProd = *compProd + 1
	return out, nil
}

// SetRingCursors forces a ring's producer/consumer words directly, used by
// tests exercising u32 wraparound without driving 2^32 real operations
// first.
func SetRingCursors(fd int, opt int, producer, consumer uint32) error {
	mu.Lock()
	defer mu.Unlock()

	s, err := lookupSocket(fd)
	if err != nil {
		return err
	}
	buf := ringFor(s, opt)
	if buf == nil || *buf == nil {
		return fmt.Errorf("simxdp: ring not mapped")
	}
	prod, cons, _ := ringWords(*buf)
	*prod = producer
	*cons = consumer
	return nil
}

