package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReversePostOrder_diamond(t *testing.T) {
	f := NewFunction()
	entry := f.EntryBlock()
	left := f.NewBlock()
	right := f.NewBlock()
	join := f.NewBlock()

	entry.AddSuccessor(left)
	entry.AddSuccessor(right)
	left.AddSuccessor(join)
	right.AddSuccessor(join)

	order := ReversePostOrder(f)
	pos := make(map[BasicBlockID]int, len(order))
	for i, b := range order {
		pos[b.ID()] = i
	}

	require.Equal(t, 0, pos[entry.ID()], "entry must come first")
	require.Less(t, pos[entry.ID()], pos[left.ID()])
	require.Less(t, pos[entry.ID()], pos[right.ID()])
	require.Less(t, pos[left.ID()], pos[join.ID()])
	require.Less(t, pos[right.ID()], pos[join.ID()])
}

func TestPostOrder_diamond(t *testing.T) {
	f := NewFunction()
	entry := f.EntryBlock()
	left := f.NewBlock()
	right := f.NewBlock()
	join := f.NewBlock()

	entry.AddSuccessor(left)
	entry.AddSuccessor(right)
	left.AddSuccessor(join)
	right.AddSuccessor(join)

	order := PostOrder(f)
	pos := make(map[BasicBlockID]int, len(order))
	for i, b := range order {
		pos[b.ID()] = i
	}

	require.Equal(t, len(order)-1, pos[entry.ID()], "entry must come last")
	require.Less(t, pos[join.ID()], pos[left.ID()])
	require.Less(t, pos[join.ID()], pos[right.ID()])
	require.Less(t, pos[left.ID()], pos[entry.ID()])
	require.Less(t, pos[right.ID()], pos[entry.ID()])
}

func TestReversePostOrder_backEdgeDoesNotLoop(t *testing.T) {
	f := NewFunction()
	entry := f.EntryBlock()
	loop := f.NewBlock()
	exit := f.NewBlock()

	entry.AddSuccessor(loop)
	loop.AddSuccessor(loop) // back edge
	loop.AddSuccessor(exit)

	order := ReversePostOrder(f)
	require.Len(t, order, 3)
	require.Equal(t, entry, order[0])
}
