// Package arc implements the Adaptive Replacement Cache: four intrusive
// lists over one arena — T1 (seen once) and T2 (seen twice or more) hold live
// values, B1 and B2 hold ghosts (keys only) remembering recent evictions from
// T1 and T2 — plus an adaptive target p that shifts capacity between recency
// (T1) and frequency (T2) based on which ghost list hits.
//
// Live and ghost entries share one arena slot layout; demoting an entry to a
// ghost clears its value in place (via the slab Reinit capability when the
// value type has one), so the slot keeps its heap allocations for the next
// promotion.
package arc

import (
	"github.com/IvanBrykalov/cachekit"
	"github.com/IvanBrykalov/cachekit/internal/expiry"
	"github.com/IvanBrykalov/cachekit/internal/hlist"
	"github.com/IvanBrykalov/cachekit/slab"
)

// Entry membership tags. An entry is in exactly one list at a time.
const (
	tagT1 = iota // live, inserted once
	tagT2        // live, accessed at least twice
	tagB1        // ghost evicted from T1
	tagB2        // ghost evicted from T2
)

type entry[K comparable, V any] struct {
	key      K
	val      V
	links    hlist.Links
	tag      uint8
	deadline uint64
	timer    uint64
}

// Cache is a single-owner ARC cache. Not safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	p        int // adaptive T1 target, 0..capacity
	index    map[K]slab.Handle
	arena    *slab.Slab[entry[K, V]]
	t1, t2   hlist.List[entry[K, V]]
	b1, b2   hlist.List[entry[K, V]]
	ttl      *expiry.Queue[K]
	onEvict  func(K, V, cachekit.EvictReason)
}

// New returns an ARC cache holding at most capacity live entries. Ghosts are
// bounded by the ARC invariants and do not count toward Len.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	arena := slab.WithCapacity[entry[K, V]](2 * capacity)
	links := func(e *entry[K, V]) *hlist.Links { return &e.links }
	return &Cache[K, V]{
		capacity: capacity,
		index:    make(map[K]slab.Handle, capacity),
		arena:    arena,
		t1:       hlist.New(arena, links),
		t2:       hlist.New(arena, links),
		b1:       hlist.New(arena, links),
		b2:       hlist.New(arena, links),
	}
}

// Len returns the number of live entries (T1+T2). Ghosts are excluded.
func (c *Cache[K, V]) Len() int { return c.t1.Len() + c.t2.Len() }

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// IsEmpty reports whether the cache holds no live entries.
func (c *Cache[K, V]) IsEmpty() bool { return c.Len() == 0 }

// SetOnEvict installs the eviction callback. It fires when a value is freed:
// demotion to a ghost, outright drop of the T1 tail, and TTL expiry.
func (c *Cache[K, V]) SetOnEvict(fn func(k K, v V, reason cachekit.EvictReason)) {
	c.onEvict = fn
}

// Clear drops live entries, ghosts and the adaptation state.
func (c *Cache[K, V]) Clear() {
	clear(c.index)
	c.arena.Clear()
	c.t1.Clear()
	c.t2.Clear()
	c.b1.Clear()
	c.b2.Clear()
	c.p = 0
	c.ttl.Clear()
}

// Insert adds or replaces k→v, running the full ARC request: live hits
// refresh into T2, ghost hits adapt p and revive through REPLACE, cold
// misses land at the front of T1.
func (c *Cache[K, V]) Insert(k K, v V) (V, bool) { return c.insert(k, v, 0) }

// InsertWithTTL is Insert with an expiry ttl ticks from now.
func (c *Cache[K, V]) InsertWithTTL(k K, v V, ttl uint64) (V, bool) {
	return c.insert(k, v, ttl)
}

func (c *Cache[K, V]) insert(k K, v V, ttl uint64) (V, bool) {
	var zero V
	if c.capacity == 0 {
		if c.onEvict != nil {
			c.onEvict(k, v, cachekit.EvictCapacity)
		}
		return zero, false
	}
	if h, ok := c.index[k]; ok {
		e := c.arena.Get(h)
		switch e.tag {
		case tagT1, tagT2:
			if c.expired(e) {
				c.expire(k, h)
				break // fall through to the miss path
			}
			prior := e.val
			e.val = v
			c.retime(k, e, ttl)
			c.hitToT2(h, e)
			return prior, true
		case tagB1:
			// B1 hit: recency was undervalued, grow the T1 target.
			c.p = min(c.capacity, c.p+max(1, c.b2.Len()/c.b1.Len()))
			c.replace(false)
			c.reviveGhost(h, e, &c.b1, v)
			c.retime(k, e, ttl)
			return zero, false
		case tagB2:
			// B2 hit: frequency was undervalued, shrink the T1 target.
			c.p = max(0, c.p-max(1, c.b1.Len()/c.b2.Len()))
			c.replace(true)
			c.reviveGhost(h, e, &c.b2, v)
			c.retime(k, e, ttl)
			return zero, false
		}
	}

	// Cold miss.
	if c.t1.Len()+c.b1.Len() == c.capacity {
		if c.t1.Len() < c.capacity {
			c.dropGhost(c.b1.Back(), &c.b1)
			c.replace(false)
		} else {
			// B1 is empty and T1 is full: drop the T1 tail outright,
			// without leaving a ghost.
			c.dropLive(c.t1.Back())
		}
	} else if total := c.t1.Len() + c.t2.Len() + c.b1.Len() + c.b2.Len(); total >= c.capacity {
		if total == 2*c.capacity {
			c.dropGhost(c.b2.Back(), &c.b2)
		}
		c.replace(false)
	}

	h, e := c.arena.NextVal()
	e.key, e.val = k, v
	e.tag = tagT1
	e.deadline, e.timer = 0, 0
	c.retime(k, e, ttl)
	c.index[k] = h
	c.t1.PushFront(h)
	return zero, false
}

// Get returns the value for k. A T1 hit promotes to T2; a T2 hit refreshes.
// Ghosts are misses: adaptation happens only when the key is re-inserted.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	var zero V
	h, ok := c.liveLookup(k)
	if !ok {
		return zero, false
	}
	e := c.arena.Get(h)
	c.hitToT2(h, e)
	return e.val, true
}

// GetMut is Get returning a pointer into the cache, valid until the next
// mutating call that touches k.
func (c *Cache[K, V]) GetMut(k K) (*V, bool) {
	h, ok := c.liveLookup(k)
	if !ok {
		return nil, false
	}
	e := c.arena.Get(h)
	c.hitToT2(h, e)
	return &e.val, true
}

// Peek returns the value for k without promoting or adapting.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	var zero V
	h, ok := c.liveLookup(k)
	if !ok {
		return zero, false
	}
	return c.arena.Get(h).val, true
}

// Contains reports whether k is live. Ghosts report false.
func (c *Cache[K, V]) Contains(k K) bool {
	_, ok := c.liveLookup(k)
	return ok
}

// Remove deletes k entirely — live value and adaptation ghost alike — and
// returns the value if k was live.
func (c *Cache[K, V]) Remove(k K) (V, bool) {
	var zero V
	h, ok := c.index[k]
	if !ok {
		return zero, false
	}
	e := c.arena.Get(h)
	switch e.tag {
	case tagB1:
		c.dropGhost(h, &c.b1)
		return zero, false
	case tagB2:
		c.dropGhost(h, &c.b2)
		return zero, false
	}
	if c.expired(e) {
		c.expire(k, h)
		return zero, false
	}
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
	h, ok := c.liveLookup(k)
	if !ok {
		return false
	}
	c.retime(k, c.arena.Get(h), ttl)
	return true
}

// TTL returns the remaining ticks before k expires. ok is false if k is not
// live; a zero remaining with ok means k never expires.
func (c *Cache[K, V]) TTL(k K) (uint64, bool) {
	h, ok := c.liveLookup(k)
	if !ok {
		return 0, false
	}
	e := c.arena.Get(h)
	if e.deadline == 0 {
		return 0, true
	}
	return e.deadline - c.ttl.Now(), true
}

// Advance moves the cache's clock forward by ticks and expires live entries
// whose TTL came due. Expired entries leave no ghost.
func (c *Cache[K, V]) Advance(ticks uint64) {
	if c.ttl == nil {
		return
	}
	c.ttl.Advance(ticks, func(k K) {
		if h, ok := c.index[k]; ok {
			e := c.arena.Get(h)
			if (e.tag == tagT1 || e.tag == tagT2) && c.expired(e) {
				c.expire(k, h)
			}
		}
	})
}

// Keys returns the live keys: T2 first, then T1, most recent first in each.
func (c *Cache[K, V]) Keys() []K {
	out := make([]K, 0, c.Len())
	c.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Values returns the live values in Keys order.
func (c *Cache[K, V]) Values() []V {
	out := make([]V, 0, c.Len())
	c.Range(func(_ K, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Range walks live entries (T2 then T1, most recent first) until f returns
// false. Expired entries are skipped, not collected.
func (c *Cache[K, V]) Range(f func(k K, v V) bool) {
	for _, l := range []*hlist.List[entry[K, V]]{&c.t2, &c.t1} {
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
	switch e.tag {
	case tagT1:
		return &c.t1
	case tagT2:
		return &c.t2
	case tagB1:
		return &c.b1
	default:
		return &c.b2
	}
}

// hitToT2 moves a live entry to the MRU position of T2. A promotion from T1
// that would push |T2|+|B2| past capacity forgets the oldest B2 ghost.
func (c *Cache[K, V]) hitToT2(h slab.Handle, e *entry[K, V]) {
	if e.tag == tagT1 {
		c.t1.Unlink(h)
		e.tag = tagT2
		c.t2.PushFront(h)
		if c.t2.Len()+c.b2.Len() > c.capacity {
			c.dropGhost(c.b2.Back(), &c.b2)
		}
		return
	}
	c.t2.MoveToFront(h)
}

// reviveGhost turns a ghost back into a live T2 entry carrying v, forgetting
// the oldest B2 ghost if |T2|+|B2| would exceed capacity.
func (c *Cache[K, V]) reviveGhost(h slab.Handle, e *entry[K, V], ghosts *hlist.List[entry[K, V]], v V) {
	ghosts.Unlink(h)
	e.tag = tagT2
	e.val = v
	c.t2.PushFront(h)
	if c.t2.Len()+c.b2.Len() > c.capacity {
		c.dropGhost(c.b2.Back(), &c.b2)
	}
}

// replace implements REPLACE(k, ·): free one live slot by demoting the tail
// of T1 or T2 to the head of its ghost list. inB2 marks a request whose key
// sits in B2, which biases the boundary case toward demoting T1.
func (c *Cache[K, V]) replace(inB2 bool) {
	t1len := c.t1.Len()
	if t1len >= 1 && ((inB2 && t1len == c.p) || t1len > c.p) {
		c.demote(c.t1.PopBack(), tagB1, &c.b1)
		return
	}
	if c.t2.Len() > 0 {
		c.demote(c.t2.PopBack(), tagB2, &c.b2)
	}
}

// demote frees a live entry's value and keeps its key as a ghost.
func (c *Cache[K, V]) demote(h slab.Handle, tag uint8, ghosts *hlist.List[entry[K, V]]) {
	if h == slab.None {
		return
	}
	e := c.arena.Get(h)
	k, v := e.key, e.val
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
		e.deadline, e.timer = 0, 0
	}
	clearValue(&e.val)
	e.tag = tag
	ghosts.PushFront(h)
	if c.onEvict != nil {
		c.onEvict(k, v, cachekit.EvictCapacity)
	}
}

// dropLive evicts a live entry without leaving a ghost.
func (c *Cache[K, V]) dropLive(h slab.Handle) {
	if h == slab.None {
		return
	}
	e := c.arena.Get(h)
	k, v := e.key, e.val
	if e.timer != 0 {
		c.ttl.Cancel(e.timer)
	}
	c.listOf(e).Unlink(h)
	delete(c.index, k)
	c.arena.Remove(h)
	if c.onEvict != nil {
		c.onEvict(k, v, cachekit.EvictCapacity)
	}
}

// dropGhost forgets a ghost entirely.
func (c *Cache[K, V]) dropGhost(h slab.Handle, ghosts *hlist.List[entry[K, V]]) {
	if h == slab.None {
		return
	}
	e := c.arena.Get(h)
	ghosts.Unlink(h)
	delete(c.index, e.key)
	c.arena.Remove(h)
}

// liveLookup resolves k to a live (T1/T2) handle, lazily expiring it.
func (c *Cache[K, V]) liveLookup(k K) (slab.Handle, bool) {
	h, ok := c.index[k]
	if !ok {
		return slab.None, false
	}
	e := c.arena.Get(h)
	if e.tag == tagB1 || e.tag == tagB2 {
		return slab.None, false
	}
	if c.expired(e) {
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

// clearValue resets a demoted entry's value in place, keeping heap
// sub-allocations when the type supports Reinit.
func clearValue[V any](v *V) {
	if r, ok := any(v).(slab.Reinit); ok {
		r.Reinit()
		return
	}
	var zero V
	*v = zero
}

var _ cachekit.Store[string, int] = (*Cache[string, int])(nil)
