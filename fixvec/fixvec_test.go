package fixvec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(v *FixedVec[int]) []int {
	var out []int
	v.Range(func(_ int, d *int) bool {
		out = append(out, *d)
		return true
	})
	return out
}

func TestFixedVec_InsertAndCapacity(t *testing.T) {
	t.Parallel()

	v := New[int](2)
	_, ok := v.InsertHead(1)
	require.True(t, ok)
	_, ok = v.InsertHead(2)
	require.True(t, ok)
	assert.Equal(t, 2, v.Len())

	h, _ := v.Head()
	assert.Equal(t, 2, *h)
	tl, _ := v.Tail()
	assert.Equal(t, 1, *tl)

	// Full: insertion is refused, eviction is the caller's job.
	_, ok = v.InsertHead(3)
	assert.False(t, ok)
	assert.True(t, v.IsFull())
}

func TestFixedVec_RemoveReusesSlots(t *testing.T) {
	t.Parallel()

	v := New[int](4)
	i1, _ := v.InsertTail(1)
	i2, _ := v.InsertTail(2)
	v.InsertTail(3)

	d, ok := v.Remove(i2)
	require.True(t, ok)
	assert.Equal(t, 2, d)
	assert.Equal(t, []int{1, 3}, values(v))

	_, ok = v.Remove(i2)
	assert.False(t, ok)

	// Freed slot is reused by the next insertion.
	i4, _ := v.InsertHead(4)
	assert.Equal(t, i2, i4)
	assert.Equal(t, []int{4, 1, 3}, values(v))

	d, ok = v.Remove(i1)
	require.True(t, ok)
	assert.Equal(t, 1, d)
}

func TestFixedVec_MoveHeadTail(t *testing.T) {
	t.Parallel()

	v := New[int](4)
	i1, _ := v.InsertTail(1)
	v.InsertTail(2)
	i3, _ := v.InsertTail(3)

	require.True(t, v.MoveHead(i3))
	assert.Equal(t, []int{3, 1, 2}, values(v))
	// The moved value keeps its index.
	assert.Equal(t, i3, v.HeadIndex())

	require.True(t, v.MoveTail(i1))
	assert.Equal(t, []int{3, 2, 1}, values(v))
	assert.Equal(t, i1, v.TailIndex())

	assert.False(t, v.MoveHead(99))
}

func TestFixedVec_PopAndRangeReverse(t *testing.T) {
	t.Parallel()

	v := New[int](3)
	v.InsertHead(1)
	v.InsertHead(2)
	v.InsertHead(3) // 3 2 1

	var rev []int
	v.RangeReverse(func(_ int, d *int) bool {
		rev = append(rev, *d)
		return true
	})
	assert.Equal(t, []int{1, 2, 3}, rev)

	d, _ := v.PopHead()
	assert.Equal(t, 3, d)
	d, _ = v.PopTail()
	assert.Equal(t, 1, d)
	d, _ = v.PopTail()
	assert.Equal(t, 2, d)
	_, ok := v.PopTail()
	assert.False(t, ok)
}

func TestFixedVec_RetainAndResize(t *testing.T) {
	t.Parallel()

	v := New[int](5)
	for i := 1; i <= 5; i++ {
		v.InsertTail(i)
	}
	v.Retain(func(d *int) bool { return *d%2 == 1 })
	assert.Equal(t, []int{1, 3, 5}, values(v))

	v.Resize(2)
	assert.Equal(t, []int{1, 3}, values(v))
	assert.True(t, v.IsFull())

	v.Resize(3)
	_, ok := v.InsertTail(7)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 3, 7}, values(v))
}
