package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSlotSize(t *testing.T) {
	cases := []struct {
		bytes byte
		want  SlotSize
	}{
		{1, SlotSize8},
		{2, SlotSize16},
		{4, SlotSize32},
		{8, SlotSize64},
		{16, SlotSize128},
	}
	for _, c := range cases {
		got, err := NewSlotSize(c.bytes)
		require.NoError(t, err)
		require.Equal(t, c.want, got)
		require.Equal(t, c.bytes, got.bytes())
	}
}

func TestNewSlotSize_unsupported(t *testing.T) {
	for _, bytes := range []byte{0, 3, 5, 7, 32} {
		_, err := NewSlotSize(bytes)
		require.Error(t, err)
	}
}

func TestSlotPool_LIFO(t *testing.T) {
	pool := NewSlotPool()

	_, ok := pool.Take(SlotSize64)
	require.False(t, ok, "empty pool should have nothing to take")

	s1 := StackSlot{ID: 1, ByteSize: 8, Log2Align: 3}
	s2 := StackSlot{ID: 2, ByteSize: 8, Log2Align: 3}
	pool.Release(SlotSize64, s1)
	pool.Release(SlotSize64, s2)

	got, ok := pool.Take(SlotSize64)
	require.True(t, ok)
	require.Equal(t, s2, got, "most recently released slot must come back first")

	got, ok = pool.Take(SlotSize64)
	require.True(t, ok)
	require.Equal(t, s1, got)

	_, ok = pool.Take(SlotSize64)
	require.False(t, ok)
}

func TestSlotPool_bucketsAreIndependent(t *testing.T) {
	pool := NewSlotPool()
	s8 := StackSlot{ID: 1, ByteSize: 1, Log2Align: 0}
	pool.Release(SlotSize8, s8)

	_, ok := pool.Take(SlotSize64)
	require.False(t, ok, "a slot released under one size bucket must not satisfy a different size")

	got, ok := pool.Take(SlotSize8)
	require.True(t, ok)
	require.Equal(t, s8, got)
}
