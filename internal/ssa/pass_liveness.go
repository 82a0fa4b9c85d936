package ssa

// SlotMap maps a Value to the StackSlot it was spilled to. A Value appears
// in SlotMap iff it was live across at least one safepoint; a GC-managed
// value that never crosses a safepoint is never added here and is left to
// live in a virtual register for its whole lifetime.
type SlotMap map[ValueID]StackSlot

// IsGCManaged decides which Values this pass must track at all.
type IsGCManaged func(Value) bool

// LivenessScan runs a single reverse pass over f, using isGCManaged to
// decide which values need tracking, and returns the resulting SlotMap for
// InsertSpillsAndReloads to consume.
//
// The traversal order is post-order of the CFG DFS (outer loop), so that a
// block's successors are fully processed before it is: since this is a
// single backward pass with no fixed-point iteration, a value defined in
// one block and used only (via direct SSA dominance) in a successor must
// already be live by the time the predecessor's own instructions are
// walked. Within each block, instructions are walked last-to-first (inner
// loop). Back edges are handled by treating branch arguments as
// unconditional uses, an over-approximation that trades precision for a
// single linear pass.
func LivenessScan(f *Function, isGCManaged IsGCManaged) (SlotMap, error) {
	slots := make(SlotMap)
	pool := NewSlotPool()
	live := NewLiveSet()

	for _, blk := range PostOrder(f) {
		tracef("traversing %s", blk)
		for inst := blk.LastInst(); inst != nil; inst = inst.prev {
			// Step 1: define. Any value this instruction produces is no
			// longer live before this point, and its slot (if it had one)
			// becomes available for reuse.
			for _, v := range inst.Results() {
				if err := processDef(f, slots, pool, live, v); err != nil {
					return nil, err
				}
			}

			// Step 2: safepoint. Must run before step 3 on the same
			// instruction, so that values only used as this call's own
			// operands (and not otherwise live) are excluded from its
			// stack map.
			if inst.Opcode().IsSafepoint() {
				if err := processSafepoint(f, slots, pool, live, inst); err != nil {
					return nil, err
				}
			}

			// Step 3: use. Every operand of a GC-managed type, including
			// branch arguments, becomes live, after alias resolution.
			for _, v := range inst.Args() {
				resolved := f.ResolveAliases(v)
				if isGCManaged(resolved) {
					processUse(live, inst, resolved)
				}
			}
		}

		// Block parameters are defined at block entry; having traversed
		// backward through the block, they are processed last.
		for _, p := range blk.Params() {
			if err := processDef(f, slots, pool, live, p); err != nil {
				return nil, err
			}
		}
	}

	return slots, nil
}

// processDef removes v from the live set, and if it already owned a slot,
// returns that slot to the pool under v's width bucket so a later (in
// reverse order, earlier in forward order) value of matching width may
// reuse it.
func processDef(f *Function, slots SlotMap, pool *SlotPool, live *LiveSet, v Value) error {
	tracef("defining %s, removing it from the live set", v)
	live.Remove(v)

	slot, ok := slots[v.ID()]
	if !ok {
		return nil
	}
	size, err := NewSlotSize(v.Type().Size())
	if err != nil {
		return err
	}
	tracef("returning %s to the free list", slot)
	pool.Release(size, slot)
	return nil
}

// processSafepoint handles a safepoint instruction: for every value
// currently live (in LiveSet's deterministic order), ensure it has a slot,
// reusing one from the pool if available or else allocating a fresh
// StackSlot, and append a stack-map entry for it to inst.
func processSafepoint(f *Function, slots SlotMap, pool *SlotPool, live *LiveSet, inst *Instruction) error {
	tracef("found safepoint: %v", inst.Opcode())
	for _, v := range live.Values() {
		slot, ok := slots[v.ID()]
		if !ok {
			tracef("%s needs a stack slot", v)
			size, err := NewSlotSize(v.Type().Size())
			if err != nil {
				return err
			}
			if reused, ok := pool.Take(size); ok {
				tracef("reusing free stack slot %s for %s", reused, v)
				slot = reused
			} else {
				slot = f.CreateSizedStackSlot(size)
				tracef("created new stack slot %s for %s", slot, v)
			}
			slots[v.ID()] = slot
		}
		inst.AppendUserStackMapEntry(StackMapEntry{Type: v.Type(), Slot: slot, Offset: 0})
	}
	return nil
}

// processUse marks v live.
func processUse(live *LiveSet, inst *Instruction, v Value) {
	if live.Insert(v) {
		tracef("found use of %s, marking it live: %v", v, inst.Opcode())
	}
}
