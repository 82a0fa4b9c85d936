package ssa

// dfsPostOrder computes the function's basic blocks in post-order of a
// depth-first traversal from the entry block: a block is appended only
// after every block reachable from it has been.
//
// Successors are visited in the order BasicBlock.Successors() returns them,
// so the result is deterministic for a given function.
func dfsPostOrder(f *Function) []*BasicBlock {
	entry := f.EntryBlock()
	visited := make(map[BasicBlockID]bool, len(f.blocks))
	var postOrder []*BasicBlock

	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b.id] {
			return
		}
		visited[b.id] = true
		for _, succ := range b.successors {
			visit(succ)
		}
		postOrder = append(postOrder, b)
	}
	visit(entry)

	// Any block unreachable from the entry (e.g. constructed but never
	// wired into the CFG) is appended after the reachable set, in creation
	// order, so every caller still sees every block exactly once.
	for _, b := range f.blocks {
		if !visited[b.id] {
			visited[b.id] = true
			postOrder = append(postOrder, b)
		}
	}
	return postOrder
}

// PostOrder computes the function's basic blocks in post-order: every
// successor of a block precedes it, with entry last. LivenessScan walks
// blocks in this order because it is a single backward pass over the whole
// function: a successor's uses must already be folded into the live set by
// the time its predecessor's instructions (and safepoints) are processed.
func PostOrder(f *Function) []*BasicBlock {
	return dfsPostOrder(f)
}

// ReversePostOrder computes the function's basic blocks in reverse
// post-order of a depth-first traversal from the entry block: entry first,
// with every block preceding all of its successors. This is the order a
// forward analysis (reaching definitions, available expressions, and the
// like) wants to walk blocks in; LivenessScan, a backward analysis, uses
// PostOrder instead.
func ReversePostOrder(f *Function) []*BasicBlock {
	postOrder := dfsPostOrder(f)
	reversePostOrder := make([]*BasicBlock, len(postOrder))
	for i, b := range postOrder {
		reversePostOrder[len(postOrder)-1-i] = b
	}
	return reversePostOrder
}
