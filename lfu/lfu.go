// Package lfu implements a bounded Least-Frequently-Used cache: entries hang
// in frequency buckets (intrusive lists over one arena), eviction takes the
// tail of the lowest occupied bucket, and a settable decay threshold halves
// all visit counts so long-lived entries cannot become unevictable.
//
// Raw visit counts are compressed into a small fixed set of buckets so the
// bucket walk stays O(1): counts 0..10 map to their own bucket, then the
// ranges 11–20, 21–50, 51–100, 101–500, 501–1000, 1001–9999, 10⁴–(10⁵−1),
// 10⁵–(10⁶−1) and 10⁶ upward share one bucket each.
package lfu

import (
	"github.com/IvanBrykalov/cachekit"
	"github.com/IvanBrykalov/cachekit/internal/expiry"
	"github.com/IvanBrykalov/cachekit/internal/hlist"
	"github.com/IvanBrykalov/cachekit/slab"
)

// numBuckets is the truncated frequency range; see bucketOf.
const numBuckets = 20

// bucketOf maps a raw visit count to its bucket index.
func bucketOf(visits uint32) int {
	switch {
	case visits <= 10:
		return int(visits)
	case visits <= 20:
		return 11
	case visits <= 50:
		return 12
	case visits <= 100:
		return 13
	case visits <= 500:
		return 14
	case visits <= 1000:
		return 15
	case visits < 10_000:
		return 16
	case visits < 100_000:
		return 17
	case visits < 1_000_000:
		return 18
	default:
		return numBuckets - 1
	}
}

type entry[K comparable, V any] struct {
	key      K
	val      V
	links    hlist.Links
	visits   uint32
	deadline uint64
	timer    uint64
}

// Cache is a single-owner LFU cache. Not safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	index    map[K]slab.Handle
	arena    *slab.Slab[entry[K, V]]
	buckets  [numBuckets]hlist.List[entry[K, V]] // head = most recent within the bucket
	minFreq  int                                 // lowest occupied bucket (eviction source)
	maxFreq  int                                 // highest occupied bucket (iteration start)

	reduceCount uint64 // decay threshold; 0 = decay disabled
	visitCount  uint64 // visits since the last decay

	ttl     *expiry.Queue[K]
	onEvict func(K, V, cachekit.EvictReason)
}

// New returns an LFU cache holding at most capacity entries. Decay is off
// until SetReduceCount.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	arena := slab.WithCapacity[entry[K, V]](capacity)
	c := &Cache[K, V]{
		capacity: capacity,
		index:    make(map[K]slab.Handle, capacity),
		arena:    arena,
	}
	links := func(e *entry[K, V]) *hlist.Links { return &e.links }
	for i := range c.buckets {
		c.buckets[i] = hlist.New(arena, links)
	}
	return c
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int { return len(c.index) }

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// IsEmpty reports whether the cache holds no entries.
func (c *Cache[K, V]) IsEmpty() bool { return len(c.index) == 0 }

// SetReduceCount arms frequency decay: once the running visit total exceeds
// n, every entry's visit count is halved and the total resets. Zero disables.
func (c *Cache[K, V]) SetReduceCount(n uint64) { c.reduceCount = n }

// SetOnEvict installs the eviction callback (capacity and TTL evictions).
func (c *Cache[K, V]) SetOnEvict(fn func(k K, v V, reason cachekit.EvictReason)) {
	c.onEvict = fn
}

// Clear drops everything without firing callbacks. The decay threshold is
// kept; the running visit total resets.
func (c *Cache[K, V]) Clear() {
	clear(c.index)
	c.arena.Clear()
	for i := range c.buckets {
		c.buckets[i].Clear()
	}
	c.minFreq, c.maxFreq = 0, 0
	c.visitCount = 0
	c.ttl.Clear()
}

// Insert adds or replaces k→v. A replace behaves as a Get plus overwrite; a
// new key starts with one visit in bucket 1.
func (c *Cache[K, V]) Insert(k K, v V) (V, bool) { return c.insert(k, v, 0) }

// InsertWithTTL is Insert with an expiry ttl ticks from now.
func (c *Cache[K, V]) InsertWithTTL(k K, v V, ttl uint64) (V, bool) {
	return c.insert(k, v, ttl)
}

func (c *Cache[K, V]) insert(k K, v V, ttl uint64) (V, bool) {
	var zero V
	if h, ok := c.lookup(k); ok {
		e := c.arena.Get(h)
		prior := e.val
		e.val = v
		c.retime(k, e, ttl)
		c.touch(h, e)
		c.countVisit()
		return prior, true
	}
	if c.capacity == 0 {
		if c.onEvict != nil {
			c.onEvict(k, v, cachekit.EvictCapacity)
		}
		return zero, false
	}
	// Make room first so the newcomer cannot be its own victim.
	c.makeRoom()
	h, e := c.arena.NextVal()
	e.key, e.val = k, v
	e.visits = 1
	e.deadline, e.timer = 0, 0
	c.retime(k, e, ttl)
	c.index[k] = h
	b := bucketOf(1)
	c.buckets[b].PushFront(h)
	if b < c.minFreq || len(c.index) == 1 {
		c.minFreq = b
	}
	if b > c.maxFreq {
		c.maxFreq = b
	}
	c.countVisit()
	return zero, false
}

// Get returns the value for k, moving it to the front of its (possibly next)
// frequency bucket.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	var zero V
	h, ok := c.lookup(k)
	if !ok {
		return zero, false
	}
	e := c.arena.Get(h)
	v := e.val
	c.touch(h, e)
	c.countVisit()
	return v, true
}

// GetMut is Get returning a pointer into the cache, valid until the next
// mutating call that touches k.
func (c *Cache[K, V]) GetMut(k K) (*V, bool) {
	h, ok := c.lookup(k)
	if !ok {
		return nil, false
	}
	e := c.arena.Get(h)
	c.touch(h, e)
	c.countVisit()
	return &c.arena.Get(h).val, true
}

// Peek returns the value for k without counting a visit.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	var zero V
	h, ok := c.lookup(k)
	if !ok {
		return zero, false
	}
	return c.arena.Get(h).val, true
}

// Contains reports whether k is live, without counting a visit.
func (c *Cache[K, V]) Contains(k K) bool {
	_, ok := c.lookup(k)
	return ok
}

// GetVisit returns k's visit count without counting one.
func (c *Cache[K, V]) GetVisit(k K) (uint32, bool) {
	h, ok := c.lookup(k)
	if !ok {
		return 0, false
	}
	return c.arena.Get(h).visits, true
}

// Remove deletes k and returns its value if it was live.
func (c *Cache[K, V]) Remove(k K) (V, bool) {
	var zero V
	h, ok := c.lookup(k)
	if !ok {
		return zero, false
	}
	e := c.arena.Get(h)
	val := e.val
	c.drop(k, h)
	return val, true
}

// SetTTL (re)arms expiry for a live key.
func (c *Cache[K, V]) SetTTL(k K, ttl uint64) bool {
	h, ok := c.lookup(k)
	if !ok {
		return false
	}
	c.retime(k, c.arena.Get(h), ttl)
	return true
}

// TTL returns the remaining ticks before k expires. ok is false if k is not
// live; a zero remaining with ok means k never expires.
func (c *Cache[K, V]) TTL(k K) (uint64, bool) {
	h, ok := c.lookup(k)
	if !ok {
		return 0, false
	}
	e := c.arena.Get(h)
	if e.deadline == 0 {
		return 0, true
	}
	return e.deadline - c.ttl.Now(), true
}

// Advance moves the cache's clock forward by ticks and evicts every entry
// whose TTL came due.
func (c *Cache[K, V]) Advance(ticks uint64) {
	if c.ttl == nil {
		return
	}
	c.ttl.Advance(ticks, func(k K) {
		if h, ok := c.index[k]; ok {
			if e := c.arena.Get(h); c.expired(e) {
				key, val := e.key, e.val
				c.drop(k, h)
				if c.onEvict != nil {
					c.onEvict(key, val, cachekit.EvictExpired)
				}
			}
		}
	})
}

// Keys returns the live keys, hottest bucket first, most recent first within
// a bucket.
func (c *Cache[K, V]) Keys() []K {
	out := make([]K, 0, len(c.index))
	c.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Values returns the live values in Keys order.
func (c *Cache[K, V]) Values() []V {
	out := make([]V, 0, len(c.index))
	c.Range(func(_ K, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Range walks buckets from hottest to coldest, most recent first within each,
// until f returns false. Expired entries are skipped, not collected.
func (c *Cache[K, V]) Range(f func(k K, v V) bool) {
	for b := c.maxFreq; b >= 0; b-- {
		l := &c.buckets[b]
		for h := l.Front(); h != slab.None; h = l.Next(h) {
			e := c.arena.Get(h)
			if c.expired(e) {
				continue
			}
			if !f(e.key, e.val) {
				return
			}
		}
	}
}

// ---- internals ----

// touch counts one visit and relinks the entry at the front of its bucket,
// moving it up a bucket when the truncated frequency changes.
func (c *Cache[K, V]) touch(h slab.Handle, e *entry[K, V]) {
	old := bucketOf(e.visits)
	e.visits++
	next := bucketOf(e.visits)
	if next == old {
		c.buckets[old].MoveToFront(h)
		return
	}
	c.buckets[old].Unlink(h)
	c.buckets[next].PushFront(h)
	if next > c.maxFreq {
		c.maxFreq = next
	}
	if old == c.minFreq && c.buckets[old].Len() == 0 {
		c.advanceMinFreq()
	}
}

// countVisit bumps the running total and triggers decay past the threshold.
func (c *Cache[K, V]) countVisit() {
	c.visitCount++
	if c.reduceCount != 0 && c.visitCount > c.reduceCount {
		c.reduce()
	}
}

// reduce halves every entry's visit count and rebuilds the buckets, keeping
// recency order within each target bucket.
func (c *Cache[K, V]) reduce() {
	var order []slab.Handle
	for b := 0; b < numBuckets; b++ {
		l := &c.buckets[b]
		// Tail→head, so that PushFront below preserves relative recency.
		for h := l.Back(); h != slab.None; h = l.Prev(h) {
			order = append(order, h)
		}
		l.Clear()
	}
	c.minFreq, c.maxFreq = 0, 0
	first := true
	for _, h := range order {
		e := c.arena.Get(h)
		e.visits /= 2
		b := bucketOf(e.visits)
		c.buckets[b].PushFront(h)
		if first || b < c.minFreq {
			c.minFreq = b
		}
		if b > c.maxFreq {
			c.maxFreq = b
		}
		first = false
	}
	c.visitCount = 0
}

func (c *Cache[K, V]) advanceMinFreq() {
	for b := c.minFreq; b < numBuckets; b++ {
		if c.buckets[b].Len() > 0 {
			c.minFreq = b
			return
		}
	}
	c.minFreq = 0
}

func (c *Cache[K, V]) lookup(k K) (slab.Handle, bool) {
	h, ok := c.index[k]
	if !ok {
		return slab.None, false
	}
	e := c.arena.Get(h)
	if c.expired(e) {
		key, val := e.key, e.val
		c.drop(k, h)
		if c.onEvict != nil {
			c.onEvict(key, val, cachekit.EvictExpired)
		}
		return slab.None, false
	}
	return h, true
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	return e.deadline != 0 && c.ttl.Now() >= e.deadline
}

// drop removes the entry without firing callbacks.
func (c *Cache[K, V]) drop(k K, h slab.Handle) {
	e := c.arena.Get(h)
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
	}
	b := bucketOf(e.visits)
	c.buckets[b].Unlink(h)
	delete(c.index, k)
	c.arena.Remove(h)
	if b == c.minFreq && c.buckets[b].Len() == 0 {
		c.advanceMinFreq()
	}
}

func (c *Cache[K, V]) retime(k K, e *entry[K, V], ttl uint64) {
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
	}
	if ttl == 0 {
		e.deadline, e.timer = 0, 0
		return
	}
	if c.ttl == nil {
		c.ttl = expiry.New[K]()
	}
	e.deadline, e.timer = c.ttl.Schedule(k, ttl)
}

// makeRoom evicts the tail of the lowest occupied bucket until a slot is
// free.
func (c *Cache[K, V]) makeRoom() {
	for len(c.index) >= c.capacity {
		h := c.victim()
		if h == slab.None {
			return
		}
		e := c.arena.Get(h)
		k, v := e.key, e.val
		c.drop(k, h)
		if c.onEvict != nil {
			c.onEvict(k, v, cachekit.EvictCapacity)
		}
	}
}

func (c *Cache[K, V]) victim() slab.Handle {
	for b := c.minFreq; b < numBuckets; b++ {
		if h := c.buckets[b].Back(); h != slab.None {
			return h
		}
	}
	return slab.None
}

var _ cachekit.Store[string, int] = (*Cache[string, int])(nil)
