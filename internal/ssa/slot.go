package ssa

import "fmt"

// SlotSize is the enumerated slot-width bucket a StackSlot falls into. There
// are exactly five, corresponding to the byte widths this pass supports:
// 1, 2, 4, 8 and 16.
type SlotSize byte

const (
	SlotSize8 SlotSize = iota
	SlotSize16
	SlotSize32
	SlotSize64
	SlotSize128

	slotSizeCount = int(SlotSize128) + 1
)

// NewSlotSize converts a byte count into its SlotSize bucket. Any width
// outside {1,2,4,8,16} is a hard error: this pass cannot allocate a stack
// slot for it.
func NewSlotSize(bytes byte) (SlotSize, error) {
	switch bytes {
	case 1:
		return SlotSize8, nil
	case 2:
		return SlotSize16, nil
	case 4:
		return SlotSize32, nil
	case 8:
		return SlotSize64, nil
	case 16:
		return SlotSize128, nil
	default:
		return 0, fmt.Errorf("ssa: %d-byte type is not supported in stack maps", bytes)
	}
}

// bytes returns the byte width this bucket was built from.
func (s SlotSize) bytes() byte {
	return byte(1) << byte(s)
}

// log2Align returns the log2 alignment a StackSlot of this size should carry,
// matching the host's create_sized_stack_slot contract (size is always a
// power of two here, so alignment == log2(size)).
func (s SlotSize) log2Align() byte {
	return byte(s)
}

// StackSlotID is the dense identifier of a StackSlot.
type StackSlotID uint32

// StackSlot identifies a fresh stack allocation. Slots are created once by
// the host (via Function.CreateSizedStackSlot) and never destroyed; once
// allocated, a slot may be reused by the pool for any later value of
// matching width.
type StackSlot struct {
	ID        StackSlotID
	ByteSize  byte
	Log2Align byte
}

// String implements fmt.Stringer for debug printing.
func (s StackSlot) String() string {
	return fmt.Sprintf("ss%d", s.ID)
}

// SlotPool is a per-size free-list of stack slots available for reuse. It
// implements a LIFO discipline per bucket: the most recently released slot
// of a given size is the first one handed back out, which tends to keep the
// live working set of slots small and contiguous.
type SlotPool struct {
	free [slotSizeCount][]StackSlot
}

// NewSlotPool returns an empty pool.
func NewSlotPool() *SlotPool {
	return &SlotPool{}
}

// Take pops a free slot of the given size, if one is available.
func (p *SlotPool) Take(size SlotSize) (StackSlot, bool) {
	bucket := p.free[size]
	n := len(bucket)
	if n == 0 {
		return StackSlot{}, false
	}
	slot := bucket[n-1]
	p.free[size] = bucket[:n-1]
	return slot, true
}

// Release returns a slot to the pool under the given size's bucket, making
// it available to any later value of matching width.
func (p *SlotPool) Release(size SlotSize, slot StackSlot) {
	p.free[size] = append(p.free[size], slot)
}
