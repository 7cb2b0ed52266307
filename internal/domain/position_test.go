package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, ClampIndex(-5, 3))
	assert.Equal(t, 3, ClampIndex(9, 3))
	assert.Equal(t, 2, ClampIndex(2, 3))
	assert.Equal(t, 0, ClampIndex(0, 0))
}

func TestMoveWithin(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	moved, ok := MoveWithin(ids, "d", 0)
	assert.True(t, ok)
	assert.Equal(t, []string{"d", "a", "b", "c"}, moved)

	moved, ok = MoveWithin(ids, "a", 3)
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "c", "d", "a"}, moved)

	// Out of range indexes clamp instead of failing.
	moved, ok = MoveWithin(ids, "b", 99)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "c", "d", "b"}, moved)

	_, ok = MoveWithin(ids, "missing", 0)
	assert.False(t, ok)
}

func TestRemoveInsertAcrossLists(t *testing.T) {
	source := []string{"a", "b", "c"}
	dest := []string{"x", "y"}

	source, ok := RemoveID(source, "b")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, source)

	dest = InsertIDAt(dest, "b", 1)
	assert.Equal(t, []string{"x", "b", "y"}, dest)
}

func TestIsDense(t *testing.T) {
	assert.True(t, IsDense([]int{0, 1, 2, 3}))
	assert.True(t, IsDense([]int{2, 0, 1}))
	assert.True(t, IsDense(nil))
	assert.False(t, IsDense([]int{0, 2, 3}))
	assert.False(t, IsDense([]int{0, 0, 1}))
	assert.False(t, IsDense([]int{-1, 0, 1}))
}
