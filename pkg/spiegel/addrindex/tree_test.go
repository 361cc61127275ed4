package addrindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndFindNarrowest(t *testing.T) {
	tree := New[string]()
	tree.Insert(Range{Lo: 0x1000, Hi: 0x2000}, "outer")
	tree.Insert(Range{Lo: 0x1100, Hi: 0x1200}, "inner")

	v, ok := tree.Find(0x1150)
	require.True(t, ok)
	assert.Equal(t, "inner", v)

	v, ok = tree.Find(0x1500)
	require.True(t, ok)
	assert.Equal(t, "outer", v)

	_, ok = tree.Find(0x5000)
	assert.False(t, ok)
}

func TestInsertDuplicateRangeIsNoop(t *testing.T) {
	tree := New[string]()
	tree.Insert(Range{Lo: 0x10, Hi: 0x20}, "first")
	tree.Insert(Range{Lo: 0x10, Hi: 0x20}, "second")

	v, ok := tree.Find(0x15)
	require.True(t, ok)
	assert.Equal(t, "first", v)
	assert.Equal(t, 1, tree.Len())
}

func TestFindAllOverlapping(t *testing.T) {
	tree := New[int]()
	tree.Insert(Range{Lo: 0, Hi: 100}, 1)
	tree.Insert(Range{Lo: 10, Hi: 50}, 2)
	tree.Insert(Range{Lo: 20, Hi: 30}, 3)

	got := tree.FindAll(25)
	assert.Equal(t, []int{3, 2, 1}, got)

	assert.Empty(t, tree.FindAll(200))
}

func TestRangeContainsAndLen(t *testing.T) {
	r := Range{Lo: 10, Hi: 20}
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(19))
	assert.False(t, r.Contains(20))
	assert.Equal(t, uint64(10), r.Len())

	empty := Range{Lo: 20, Hi: 20}
	assert.Equal(t, uint64(0), empty.Len())
	assert.False(t, empty.Contains(20))
}
