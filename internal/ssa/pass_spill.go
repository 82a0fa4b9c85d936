package ssa

// InsertSpillsAndReloads is a second, forward pass that inserts a
// store-to-slot after each definition of a slot-mapped value and replaces
// each use with a load-from-slot.
//
// Blocks are visited in any order (f.Blocks(), i.e. creation order); within
// a block, the original instruction list is captured before any insertion
// so that newly-inserted loads/stores are never mistaken for original
// instructions and re-processed, by remembering each original
// instruction's true successor before mutating the list.
func InsertSpillsAndReloads(f *Function, slots SlotMap) {
	for _, blk := range f.Blocks() {
		originalFirst := blk.FirstInst()

		// Spill block parameters mapped to a slot to the very top of the
		// block, before any original instruction.
		for _, p := range blk.Params() {
			if slot, ok := slots[p.ID()]; ok {
				f.InsertStackStoreBefore(blk, originalFirst, p, slot)
			}
		}

		for cur := originalFirst; cur != nil; {
			// Capture the true next original instruction before this
			// iteration inserts anything that would otherwise shift
			// cur.next out from under us.
			origNext := cur.next

			rewriteOperands(f, blk, cur, slots)
			spillResults(f, blk, cur, slots)

			cur = origNext
		}
	}
}

// rewriteOperands replaces every slot-mapped operand of inst with a fresh
// load from that slot, inserted just before inst, and commits the batch of
// replacements atomically.
func rewriteOperands(f *Function, blk *BasicBlock, inst *Instruction, slots SlotMap) {
	args := inst.Args()
	rewritten := make([]Value, len(args))
	changed := false
	for i, v := range args {
		if slot, ok := slots[v.ID()]; ok {
			rewritten[i] = f.InsertStackLoadBefore(blk, inst, v.Type(), slot)
			changed = true
		} else {
			rewritten[i] = v
		}
	}
	if changed {
		inst.setArgs(rewritten)
	}
}

// spillResults stores every slot-mapped result of inst to its slot,
// immediately after inst.
func spillResults(f *Function, blk *BasicBlock, inst *Instruction, slots SlotMap) {
	for _, v := range inst.Results() {
		if slot, ok := slots[v.ID()]; ok {
			f.InsertStackStoreAfter(blk, inst, v, slot)
		}
	}
}
