// Package lru implements a bounded Least-Recently-Used cache: one intrusive
// list over a slab arena, newest at the head, evictions from the tail.
package lru

import (
	"github.com/IvanBrykalov/cachekit"
	"github.com/IvanBrykalov/cachekit/internal/expiry"
	"github.com/IvanBrykalov/cachekit/internal/hlist"
	"github.com/IvanBrykalov/cachekit/slab"
)

type entry[K comparable, V any] struct {
	key      K
	val      V
	links    hlist.Links
	deadline uint64 // absolute expiry tick; 0 = immortal
	timer    uint64 // wheel timer id; 0 = none
}

// Cache is a single-owner LRU cache. Not safe for concurrent use: Get
// reorders, so even readers need exclusive access.
type Cache[K comparable, V any] struct {
	capacity int
	index    map[K]slab.Handle
	arena    *slab.Slab[entry[K, V]]
	order    hlist.List[entry[K, V]] // head = most recent, tail = next victim
	ttl      *expiry.Queue[K]        // lazily created on first TTL use
	onEvict  func(K, V, cachekit.EvictReason)
}

// New returns an LRU cache holding at most capacity entries. A capacity of
// zero is legal: inserts are accepted and evicted immediately.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	arena := slab.WithCapacity[entry[K, V]](capacity)
	return &Cache[K, V]{
		capacity: capacity,
		index:    make(map[K]slab.Handle, capacity),
		arena:    arena,
		order:    hlist.New(arena, func(e *entry[K, V]) *hlist.Links { return &e.links }),
	}
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int { return len(c.index) }

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// IsEmpty reports whether the cache holds no entries.
func (c *Cache[K, V]) IsEmpty() bool { return len(c.index) == 0 }

// Resize changes the capacity, evicting from the tail if it shrank below Len.
func (c *Cache[K, V]) Resize(capacity int) {
	c.capacity = capacity
	c.shed()
}

// SetOnEvict installs the eviction callback. It fires for capacity evictions
// and TTL expiries, not for explicit Remove.
func (c *Cache[K, V]) SetOnEvict(fn func(k K, v V, reason cachekit.EvictReason)) {
	c.onEvict = fn
}

// Clear drops everything without firing callbacks.
func (c *Cache[K, V]) Clear() {
	clear(c.index)
	c.arena.Clear()
	c.order.Clear()
	c.ttl.Clear()
}

// Insert adds or replaces k→v at the most-recent position and returns the
// prior value if k was live. Inserting over capacity evicts the tail.
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
		c.order.MoveToFront(h)
		return prior, true
	}
	h, e := c.arena.NextVal()
	e.key, e.val = k, v
	e.deadline, e.timer = 0, 0
	c.retime(k, e, ttl)
	c.index[k] = h
	c.order.PushFront(h)
	c.shed()
	return zero, false
}

// Get returns the value for k and promotes it to most recent. Expired
// entries are collected and reported as a miss.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	var zero V
	h, ok := c.lookup(k)
	if !ok {
		return zero, false
	}
	c.order.MoveToFront(h)
	return c.arena.Get(h).val, true
}

// GetMut is Get returning a pointer into the cache. The pointer is valid
// until the next mutating call that touches k.
func (c *Cache[K, V]) GetMut(k K) (*V, bool) {
	h, ok := c.lookup(k)
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(h)
	return &c.arena.Get(h).val, true
}

// Peek returns the value for k without reordering.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	var zero V
	h, ok := c.lookup(k)
	if !ok {
		return zero, false
	}
	return c.arena.Get(h).val, true
}

// Contains reports whether k is live, without reordering.
func (c *Cache[K, V]) Contains(k K) bool {
	_, ok := c.lookup(k)
	return ok
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
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
	}
	c.order.Unlink(h)
	delete(c.index, k)
	c.arena.Remove(h)
	return val, true
}

// PopFront removes and returns the most recently used entry.
func (c *Cache[K, V]) PopFront() (K, V, bool) { return c.pop(c.order.Front) }

// PopBack removes and returns the least recently used entry — the one the
// next over-capacity insert would evict.
func (c *Cache[K, V]) PopBack() (K, V, bool) { return c.pop(c.order.Back) }

func (c *Cache[K, V]) pop(end func() slab.Handle) (K, V, bool) {
	for {
		h := end()
		if h == slab.None {
			var k K
			var v V
			return k, v, false
		}
		e := c.arena.Get(h)
		if c.expired(e) {
			c.expire(e.key, h)
			continue
		}
		k := e.key
		v, _ := c.Remove(k)
		return k, v, true
	}
}

// SetTTL (re)arms expiry for a live key, ttl ticks from now.
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
				c.expire(k, h)
			}
		}
	})
}

// Keys returns the live keys, most recent first.
func (c *Cache[K, V]) Keys() []K {
	out := make([]K, 0, len(c.index))
	c.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Values returns the live values, most recent first.
func (c *Cache[K, V]) Values() []V {
	out := make([]V, 0, len(c.index))
	c.Range(func(_ K, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Range walks live entries most-recent first until f returns false.
// Expired entries are skipped but not collected (Range never mutates).
func (c *Cache[K, V]) Range(f func(k K, v V) bool) {
	for h := c.order.Front(); h != slab.None; h = c.order.Next(h) {
		e := c.arena.Get(h)
		if c.expired(e) {
			continue
		}
		if !f(e.key, e.val) {
			return
		}
	}
}

// ---- internals ----

// lookup resolves k to a live handle, lazily collecting it if expired.
func (c *Cache[K, V]) lookup(k K) (slab.Handle, bool) {
	h, ok := c.index[k]
	if !ok {
		return slab.None, false
	}
	if e := c.arena.Get(h); c.expired(e) {
		c.expire(k, h)
		return slab.None, false
	}
	return h, true
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	return e.deadline != 0 && c.ttl.Now() >= e.deadline
}

func (c *Cache[K, V]) expire(k K, h slab.Handle) {
	e := c.arena.Get(h)
	key, val := e.key, e.val
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
	}
	c.order.Unlink(h)
	delete(c.index, k)
	c.arena.Remove(h)
	if c.onEvict != nil {
		c.onEvict(key, val, cachekit.EvictExpired)
	}
}

// retime rearms or disarms the entry's expiry.
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

// shed evicts from the tail until the capacity bound holds.
func (c *Cache[K, V]) shed() {
	for len(c.index) > c.capacity {
		h := c.order.PopBack()
		if h == slab.None {
			return
		}
		e := c.arena.Get(h)
		k, v := e.key, e.val
		if e.timer != 0 {
			c.ttl.Cancel(e.timer)
		}
		delete(c.index, k)
		c.arena.Remove(h)
		if c.onEvict != nil {
			c.onEvict(k, v, cachekit.EvictCapacity)
		}
	}
}

var _ cachekit.Store[string, int] = (*Cache[string, int])(nil)
