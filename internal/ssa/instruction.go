package ssa

// StackMapEntry records one GC-managed value's location at a safepoint:
// its type, the stack slot it was spilled to, and its byte offset within
// that slot (always 0, since this pass never packs multiple values into
// one slot at different offsets).
type StackMapEntry struct {
	Type   Type
	Slot   StackSlot
	Offset int32
}

// InstructionID is the dense identifier of an Instruction, used only for
// debug formatting and deterministic ordering of work lists that need one.
type InstructionID uint32

// Instruction is an opaque IR instruction: it has an opcode, a list of
// value operands (including, for branches, the block arguments being
// passed to the target), a list of result values, and, once the
// liveness pass has run, zero or more stack-map entries. It is a node in
// an intrusive doubly-linked list owned by its BasicBlock, threaded via
// prev/next pointers rather than a slice.
type Instruction struct {
	id      InstructionID
	opcode  Opcode
	args    []Value
	results []Value
	stackMap []StackMapEntry

	// slot and offset are only meaningful for OpcodeStackStore and
	// OpcodeStackLoad, inserted by InsertSpillsAndReloads.
	slot   StackSlot
	offset int32

	blk        *BasicBlock
	prev, next *Instruction
}

// StackSlotOperand returns the stack slot an OpcodeStackStore/
// OpcodeStackLoad instruction operates on.
func (i *Instruction) StackSlotOperand() StackSlot { return i.slot }

// StackOffset returns the byte offset an OpcodeStackStore/OpcodeStackLoad
// instruction operates at (always 0 in this pass).
func (i *Instruction) StackOffset() int32 { return i.offset }

// Opcode returns the instruction's opcode.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Results returns the instruction's result values.
func (i *Instruction) Results() []Value { return i.results }

// Args returns the instruction's value operands, including branch
// arguments for branch instructions.
func (i *Instruction) Args() []Value { return i.args }

// AppendUserStackMapEntry appends one stack-map entry to this instruction.
// Only ever called on safepoint instructions, once per live GC-managed
// value.
func (i *Instruction) AppendUserStackMapEntry(e StackMapEntry) {
	i.stackMap = append(i.stackMap, e)
}

// StackMap returns the stack-map entries recorded on this instruction, in
// the order they were appended, which is LiveSet's deterministic order.
func (i *Instruction) StackMap() []StackMapEntry { return i.stackMap }

// Next returns the instruction following this one in its block, or nil if
// this is the block's last instruction.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the instruction preceding this one in its block, or nil if
// this is the block's first instruction.
func (i *Instruction) Prev() *Instruction { return i.prev }

// setArgs replaces this instruction's operand list in one atomic step, so
// a batch of operand rewrites takes effect all at once and is never
// partially visible.
func (i *Instruction) setArgs(args []Value) { i.args = args }
