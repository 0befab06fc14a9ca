package lfu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The least-frequently-used entry goes first; recency breaks frequency ties.
func TestLFU_EvictsColdest(t *testing.T) {
	t.Parallel()

	c := New[string, string](3)
	c.Insert("now", "ok")
	c.Insert("hello", "algorithm")
	c.Insert("this", "lru")
	c.Get("hello")
	c.Get("this")

	c.Insert("auth", "tickbh") // "now" has the lowest count and is the tie tail
	assert.Equal(t, 3, c.Len())
	_, ok := c.Peek("now")
	assert.False(t, ok)
	v, _ := c.Peek("hello")
	assert.Equal(t, "algorithm", v)
	v, _ = c.Peek("this")
	assert.Equal(t, "lru", v)
}

func TestLFU_TieBrokenByRecency(t *testing.T) {
	t.Parallel()

	c := New[string, int](2)
	c.Insert("a", 1)
	c.Insert("b", 2) // both at one visit; "a" is the bucket tail

	c.Insert("c", 3)
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
}

func TestLFU_VisitCounting(t *testing.T) {
	t.Parallel()

	c := New[string, int](4)
	c.Insert("a", 1)
	v, ok := c.GetVisit("a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)

	c.Get("a")
	c.Get("a")
	v, _ = c.GetVisit("a")
	assert.Equal(t, uint32(3), v)

	// Peek, Contains and GetVisit don't count.
	c.Peek("a")
	c.Contains("a")
	c.GetVisit("a")
	v, _ = c.GetVisit("a")
	assert.Equal(t, uint32(3), v)

	// An overwrite counts as a visit.
	c.Insert("a", 2)
	v, _ = c.GetVisit("a")
	assert.Equal(t, uint32(4), v)

	_, ok = c.GetVisit("missing")
	assert.False(t, ok)
}

// Decay walkthrough: two inserts, a 100-visit threshold, 99 reads on one key.
// The read that pushes the running total past the threshold halves every
// count (integer division).
func TestLFU_Decay(t *testing.T) {
	t.Parallel()

	c := New[string, string](3)
	c.Insert("hello", "algorithm")
	c.Insert("this", "lru")
	c.SetReduceCount(100)

	for i := 0; i < 99; i++ {
		_, ok := c.Get("this")
		require.True(t, ok)
	}

	v, _ := c.GetVisit("this") // (1+99)/2
	assert.Equal(t, uint32(50), v)
	v, _ = c.GetVisit("hello") // 1/2
	assert.Equal(t, uint32(0), v)

	assert.Equal(t, []string{"this", "hello"}, c.Keys())
}

// After decay the buckets are rebuilt and eviction still takes the coldest.
func TestLFU_EvictionAfterDecay(t *testing.T) {
	t.Parallel()

	c := New[string, int](3)
	c.Insert("hot", 1)
	c.Insert("warm", 2)
	c.Insert("cold", 3)
	for i := 0; i < 30; i++ {
		c.Get("hot")
	}
	for i := 0; i < 10; i++ {
		c.Get("warm")
	}
	c.SetReduceCount(40)
	c.Get("hot") // pushes the total over 40: hot 32→16, warm 11→5, cold 1→0

	v, _ := c.GetVisit("hot")
	assert.Equal(t, uint32(16), v)
	v, _ = c.GetVisit("warm")
	assert.Equal(t, uint32(5), v)
	v, _ = c.GetVisit("cold")
	assert.Equal(t, uint32(0), v)

	c.Insert("new", 4)
	assert.False(t, c.Contains("cold"))
	assert.True(t, c.Contains("hot"))
	assert.True(t, c.Contains("warm"))
}

func TestLFU_IterationDescendsFrequency(t *testing.T) {
	t.Parallel()

	c := New[string, int](4)
	c.Insert("low", 1)
	c.Insert("mid", 2)
	c.Insert("high", 3)
	c.Get("mid")
	c.Get("high")
	c.Get("high")

	assert.Equal(t, []string{"high", "mid", "low"}, c.Keys())
	assert.Equal(t, []int{3, 2, 1}, c.Values())
}

func TestLFU_InsertReturnsPriorAndRemove(t *testing.T) {
	t.Parallel()

	c := New[string, string](3)
	c.Insert("this", "lru")
	prior, replaced := c.Insert("this", "lru good")
	require.True(t, replaced)
	assert.Equal(t, "lru", prior)

	v, ok := c.Remove("this")
	require.True(t, ok)
	assert.Equal(t, "lru good", v)
	assert.True(t, c.IsEmpty())
	_, ok = c.Remove("this")
	assert.False(t, ok)
}

func TestLFU_ZeroCapacity(t *testing.T) {
	t.Parallel()

	c := New[string, int](0)
	c.Insert("a", 1)
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLFU_TTL(t *testing.T) {
	t.Parallel()

	c := New[string, int](4)
	c.InsertWithTTL("a", 1, 5)
	c.Insert("b", 2)

	c.Advance(4)
	assert.True(t, c.Contains("a"))
	c.Advance(1)
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
	assert.Equal(t, 1, c.Len())
}

// A frequently-read entry that expires must not leave bucket state behind.
func TestLFU_ExpiredHotEntry(t *testing.T) {
	t.Parallel()

	c := New[string, int](4)
	c.InsertWithTTL("hot", 1, 3)
	c.Get("hot")
	c.Get("hot")
	c.Advance(3)

	assert.False(t, c.Contains("hot"))
	c.Insert("a", 1)
	c.Insert("b", 2)
	assert.Equal(t, []string{"b", "a"}, c.Keys())
}
