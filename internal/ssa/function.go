package ssa

// Function is a minimal SSA substrate: a builder over basic blocks,
// instructions and values, modeled on a Builder/basicBlock split, extended
// just enough to carry stack slots and stack-map entries for safepoint
// spilling.
type Function struct {
	blocks  []*BasicBlock
	entry   *BasicBlock
	aliases map[ValueID]Value

	nextValueID   ValueID
	nextBlockID   BasicBlockID
	nextInstID    InstructionID
	nextSlotID    StackSlotID
}

// NewFunction returns an empty function with a single entry block.
func NewFunction() *Function {
	f := &Function{aliases: make(map[ValueID]Value)}
	f.entry = f.NewBlock()
	return f
}

// EntryBlock returns the function's entry block.
func (f *Function) EntryBlock() *BasicBlock { return f.entry }

// Blocks returns every block belonging to this function, in creation
// order. The spill/reload rewriter may walk blocks in any order, so
// creation order is as good as any.
func (f *Function) Blocks() []*BasicBlock { return f.blocks }

// NewBlock allocates a fresh, empty basic block.
func (f *Function) NewBlock() *BasicBlock {
	b := &BasicBlock{id: f.nextBlockID}
	f.nextBlockID++
	f.blocks = append(f.blocks, b)
	return b
}

// allocateValue mints a new Value with a fresh ID.
func (f *Function) allocateValue(typ Type) Value {
	v := NewValue(f.nextValueID, typ)
	f.nextValueID++
	return v
}

// AppendInst appends a new instruction to the tail of blk with the given
// opcode, operands and result types, returning the created instruction.
func (f *Function) AppendInst(blk *BasicBlock, op Opcode, args []Value, resultTypes ...Type) *Instruction {
	inst := f.newInst(op, args, resultTypes)
	blk.insertAtTail(inst)
	return inst
}

// AppendBranch appends a branch instruction (Jump/Brz/Brnz) whose operands
// are the block arguments passed to target, and records target as a CFG
// successor of blk.
func (f *Function) AppendBranch(blk *BasicBlock, op Opcode, target *BasicBlock, blockArgs []Value) *Instruction {
	inst := f.newInst(op, blockArgs, nil)
	blk.insertAtTail(inst)
	blk.AddSuccessor(target)
	return inst
}

func (f *Function) newInst(op Opcode, args []Value, resultTypes []Type) *Instruction {
	inst := &Instruction{id: f.nextInstID, opcode: op, args: args}
	f.nextInstID++
	if len(resultTypes) > 0 {
		inst.results = make([]Value, len(resultTypes))
		for i, t := range resultTypes {
			inst.results[i] = f.allocateValue(t)
		}
	}
	return inst
}

// CreateSizedStackSlot creates a fresh stack allocation of exactly the
// given size and log2 alignment. Slots are created once and never
// destroyed; reuse happens only via SlotPool.
func (f *Function) CreateSizedStackSlot(size SlotSize) StackSlot {
	slot := StackSlot{ID: f.nextSlotID, ByteSize: size.bytes(), Log2Align: size.log2Align()}
	f.nextSlotID++
	return slot
}

// InsertStackStoreBefore inserts a `stack_store val → slot @ 0` immediately
// before at, or at the tail of blk if at is nil (an empty block, or "insert
// at the very top" when at is the block's current first instruction passed
// by the caller prior to any splicing).
func (f *Function) InsertStackStoreBefore(blk *BasicBlock, at *Instruction, val Value, slot StackSlot) *Instruction {
	inst := &Instruction{id: f.nextInstID, opcode: OpcodeStackStore, args: []Value{val}, slot: slot}
	f.nextInstID++
	blk.insertBefore(at, inst)
	return inst
}

// InsertStackStoreAfter inserts a `stack_store val → slot @ 0` immediately
// after at.
func (f *Function) InsertStackStoreAfter(blk *BasicBlock, at *Instruction, val Value, slot StackSlot) *Instruction {
	inst := &Instruction{id: f.nextInstID, opcode: OpcodeStackStore, args: []Value{val}, slot: slot}
	f.nextInstID++
	blk.insertAfter(at, inst)
	return inst
}

// InsertStackLoadBefore inserts a `load typ from slot @ 0` immediately
// before at, returning the freshly-defined Value it loads into.
func (f *Function) InsertStackLoadBefore(blk *BasicBlock, at *Instruction, typ Type, slot StackSlot) Value {
	result := f.allocateValue(typ)
	inst := &Instruction{id: f.nextInstID, opcode: OpcodeStackLoad, results: []Value{result}, slot: slot}
	f.nextInstID++
	blk.insertBefore(at, inst)
	return result
}

// AddAlias records that v is an alias of canonical, so that ResolveAliases
// follows the chain back to its canonical definition. Host IR builders use
// this to model value-numbering/copy-propagation results; this pass itself
// never introduces aliases.
func (f *Function) AddAlias(v, canonical Value) {
	f.aliases[v.ID()] = canonical
}

// ResolveAliases follows any alias chain for v and returns its canonical
// Value, used by the liveness scan's use step before testing
// GC-managedness.
func (f *Function) ResolveAliases(v Value) Value {
	seen := map[ValueID]bool{}
	for {
		canon, ok := f.aliases[v.ID()]
		if !ok || seen[canon.ID()] {
			return v
		}
		seen[v.ID()] = true
		v = canon
	}
}
