// Package lruk implements a bounded LRU-K cache. Entries start in a history
// list and are promoted to the main LRU once they have been touched K times;
// capacity pressure reclaims the history tail first, so one-shot traffic
// cannot push hot entries out.
package lruk

import (
	"github.com/IvanBrykalov/cachekit"
	"github.com/IvanBrykalov/cachekit/internal/expiry"
	"github.com/IvanBrykalov/cachekit/internal/hlist"
	"github.com/IvanBrykalov/cachekit/slab"
)

// DefaultTimes is the promotion threshold used by New.
const DefaultTimes = 2

type entry[K comparable, V any] struct {
	key      K
	val      V
	links    hlist.Links
	visits   uint32
	promoted bool // true once the entry lives in the main list
	deadline uint64
	timer    uint64
}

// Cache is a single-owner LRU-K cache. Not safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	times    uint32 // promotion threshold K
	index    map[K]slab.Handle
	arena    *slab.Slab[entry[K, V]]
	history  hlist.List[entry[K, V]] // entries seen < K times
	main     hlist.List[entry[K, V]] // entries seen >= K times
	ttl      *expiry.Queue[K]
	onEvict  func(K, V, cachekit.EvictReason)
}

// New returns an LRU-K cache with the default promotion threshold.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	return WithTimes[K, V](capacity, DefaultTimes)
}

// WithTimes returns an LRU-K cache that promotes entries after times touches.
// times of zero or one promotes on first touch, degenerating to plain LRU.
func WithTimes[K comparable, V any](capacity int, times uint32) *Cache[K, V] {
	if times == 0 {
		times = 1
	}
	arena := slab.WithCapacity[entry[K, V]](capacity)
	links := func(e *entry[K, V]) *hlist.Links { return &e.links }
	return &Cache[K, V]{
		capacity: capacity,
		times:    times,
		index:    make(map[K]slab.Handle, capacity),
		arena:    arena,
		history:  hlist.New(arena, links),
		main:     hlist.New(arena, links),
	}
}

// Len returns the number of live entries across both lists.
func (c *Cache[K, V]) Len() int { return len(c.index) }

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// IsEmpty reports whether the cache holds no entries.
func (c *Cache[K, V]) IsEmpty() bool { return len(c.index) == 0 }

// Times returns the promotion threshold K.
func (c *Cache[K, V]) Times() uint32 { return c.times }

// SetOnEvict installs the eviction callback (capacity and TTL evictions).
func (c *Cache[K, V]) SetOnEvict(fn func(k K, v V, reason cachekit.EvictReason)) {
	c.onEvict = fn
}

// Clear drops everything without firing callbacks.
func (c *Cache[K, V]) Clear() {
	clear(c.index)
	c.arena.Clear()
	c.history.Clear()
	c.main.Clear()
	c.ttl.Clear()
}

// Insert adds or replaces k→v. A replace counts as a touch and can promote
// the entry; a new key starts in the history list with one visit.
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
	e.visits, e.promoted = 1, false
	e.deadline, e.timer = 0, 0
	c.retime(k, e, ttl)
	c.index[k] = h
	if e.visits >= c.times {
		e.promoted = true
		c.main.PushFront(h)
	} else {
		c.history.PushFront(h)
	}
	return zero, false
}

// Get returns the value for k, counting the touch and promoting the entry
// to the main list once it reaches K visits.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	var zero V
	h, ok := c.lookup(k)
	if !ok {
		return zero, false
	}
	e := c.arena.Get(h)
	c.touch(h, e)
	return e.val, true
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
	return &e.val, true
}

// Peek returns the value for k without counting a visit or reordering.
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

// Visits returns how many times k has been touched, without counting one.
func (c *Cache[K, V]) Visits(k K) (uint32, bool) {
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
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
	}
	c.listOf(e).Unlink(h)
	delete(c.index, k)
	c.arena.Remove(h)
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
				c.expire(k, h)
			}
		}
	})
}

// Keys returns the live keys: main list first (most recent first), then the
// history list.
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

// Range walks the main list then the history list, most recent first within
// each, until f returns false. Expired entries are skipped, not collected.
func (c *Cache[K, V]) Range(f func(k K, v V) bool) {
	for _, l := range []*hlist.List[entry[K, V]]{&c.main, &c.history} {
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

func (c *Cache[K, V]) listOf(e *entry[K, V]) *hlist.List[entry[K, V]] {
	if e.promoted {
		return &c.main
	}
	return &c.history
}

// touch counts a visit and applies the promotion rule: history entries move
// to the front of their list until the K-th touch unlinks them into main.
func (c *Cache[K, V]) touch(h slab.Handle, e *entry[K, V]) {
	e.visits++
	if e.promoted {
		c.main.MoveToFront(h)
		return
	}
	if e.visits >= c.times {
		c.history.Unlink(h)
		e.promoted = true
		c.main.PushFront(h)
		return
	}
	c.history.MoveToFront(h)
}

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
	c.listOf(e).Unlink(h)
	delete(c.index, k)
	c.arena.Remove(h)
	if c.onEvict != nil {
		c.onEvict(key, val, cachekit.EvictExpired)
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

// makeRoom reclaims the history tail first; hot promoted entries go only
// when no cold ones are left.
func (c *Cache[K, V]) makeRoom() {
	for len(c.index) >= c.capacity {
		h := c.history.PopBack()
		if h == slab.None {
			h = c.main.PopBack()
		}
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
