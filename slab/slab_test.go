package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlab_InsertGetRemove(t *testing.T) {
	t.Parallel()

	s := New[int]()
	require.True(t, s.IsEmpty())

	h0 := s.Insert(1)
	h1 := s.Insert(5)
	h2 := s.Insert(9)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, Handle(0), h0)
	assert.Equal(t, Handle(1), h1)
	assert.Equal(t, Handle(2), h2)
	assert.Equal(t, 5, *s.Get(h1))

	s.Remove(h0)
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Contains(h0))
	assert.True(t, s.Contains(h2))

	_, ok := s.TryGet(h0)
	assert.False(t, ok)
	v, ok := s.TryGet(h2)
	require.True(t, ok)
	assert.Equal(t, 9, *v)
}

// Freed handles must be reused most-recently-freed first.
func TestSlab_FreeListIsLIFO(t *testing.T) {
	t.Parallel()

	s := New[string]()
	for i := 0; i < 100; i++ {
		h, v := s.NextVal()
		*v = "v"
		require.Equal(t, Handle(i), h)
	}
	for i := 0; i < 100; i++ {
		s.Remove(Handle(i))
	}
	require.True(t, s.IsEmpty())
	assert.Equal(t, 100, s.Cap())

	assert.Equal(t, Handle(99), s.Next())
	assert.Equal(t, Handle(98), s.Next())
	assert.Equal(t, 2, s.Len())
}

func TestSlab_DoubleFreePanics(t *testing.T) {
	t.Parallel()

	s := New[int]()
	h := s.Insert(1)
	s.Remove(h)
	assert.False(t, s.TryRemove(h))
	assert.Panics(t, func() { s.Remove(h) })
	assert.Panics(t, func() { s.Get(h) })
}

type buf struct {
	data []byte
}

func (b *buf) Reinit() {
	b.data = b.data[:0]
}

// Allocate, mutate, free, allocate again: the same handle comes back and the
// value is reinitialized in place, keeping its backing array.
func TestSlab_ReinitReusesSlot(t *testing.T) {
	t.Parallel()

	s := New[buf]()
	h, v := s.NextVal()
	v.data = append(v.data, "payload"...)
	backing := &v.data[0]

	s.Remove(h)
	h2, v2 := s.ReinitNext()
	require.Equal(t, h, h2)
	assert.Len(t, v2.data, 0)

	// The reinitialized slot must reuse the previous heap allocation.
	v2.data = append(v2.data, 'x')
	assert.Same(t, backing, &v2.data[0])
}

// Types without the Reinit capability fall back to zeroing.
func TestSlab_ReinitFallbackZeroes(t *testing.T) {
	t.Parallel()

	s := New[string]()
	h := s.Insert("stale")
	s.Remove(h)

	h2, v := s.ReinitNext()
	require.Equal(t, h, h2)
	assert.Equal(t, "", *v)
}

func TestSlab_RangeAndRetain(t *testing.T) {
	t.Parallel()

	s := New[string]()
	s.Insert("hello")
	s.Insert("this")
	s.Insert("year")

	var got []string
	s.Range(func(_ Handle, v *string) bool {
		got = append(got, *v)
		return true
	})
	assert.Equal(t, []string{"hello", "this", "year"}, got)

	s.Retain(func(_ Handle, v *string) bool {
		return *v == "hello" || *v == "this"
	})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "this", *s.Get(1))
}

func TestSlab_Clear(t *testing.T) {
	t.Parallel()

	s := New[int]()
	s.Insert(1)
	s.Insert(2)
	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, Handle(0), s.Next())
}
