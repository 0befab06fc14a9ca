package cache

import (
	"sync"
	"time"

	"github.com/IvanBrykalov/cachekit"
	"github.com/IvanBrykalov/cachekit/internal/util"
)

// shard is an independent partition of the cache: its own lock and its own
// single-owner store. The shard is the "external lock around the whole
// cache" the cores require; it also paces the store's TTL wheel from the
// wall clock.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu       sync.Mutex
	store    cachekit.Store[K, V]
	lastNano int64 // wall-clock position of the store's tick cursor

	tickNano int64
	opt      *Options[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// newShard builds a shard with a per-shard store from the factory.
func newShard[K comparable, V any](capacity int, factory StoreFactory[K, V], opt *Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{
		store:    factory(capacity),
		tickNano: int64(opt.TickDuration),
		opt:      opt,
		lastNano: opt.now(),
	}
	// Route core evictions into counters, metrics and the user callback.
	// The store invokes this under the shard lock.
	s.store.SetOnEvict(func(k K, v V, reason cachekit.EvictReason) {
		s.evicts.Add(1)
		opt.Metrics.Evict(reason)
		if cb := opt.OnEvict; cb != nil {
			cb(k, v, reason)
		}
	})
	return s
}

// Set inserts or updates an entry. ttl <= 0 means no expiry.
func (s *shard[K, V]) Set(k K, v V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	if t := s.ticks(ttl); t > 0 {
		s.store.InsertWithTTL(k, v, t)
	} else {
		s.store.Insert(k, v)
	}
	s.opt.Metrics.Size(s.store.Len())
}

// Add inserts only if the key is absent. Returns false on duplicate.
func (s *shard[K, V]) Add(k K, v V, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	if s.store.Contains(k) {
		return false
	}
	if t := s.ticks(ttl); t > 0 {
		s.store.InsertWithTTL(k, v, t)
	} else {
		s.store.Insert(k, v)
	}
	s.opt.Metrics.Size(s.store.Len())
	return true
}

// Get returns the value and promotes the entry according to the policy.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	v, ok := s.store.Get(k)
	if ok {
		s.hits.Add(1)
		s.opt.Metrics.Hit()
	} else {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
	}
	return v, ok
}

// Peek returns the value without touching the eviction order or counters.
func (s *shard[K, V]) Peek(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return s.store.Peek(k)
}

// Remove deletes an entry by key. Returns true if the entry existed.
// Explicit removes are not counted as evictions.
func (s *shard[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	_, ok := s.store.Remove(k)
	return ok
}

// Len returns the number of live entries in this shard.
func (s *shard[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return s.store.Len()
}

// -------------------- internals (mu held) --------------------

// advanceLocked moves the store's tick cursor up to the wall clock, firing
// any TTLs that came due since the last operation on this shard.
func (s *shard[K, V]) advanceLocked() {
	now := s.opt.now()
	ticks := (now - s.lastNano) / s.tickNano
	if ticks <= 0 {
		return
	}
	s.store.Advance(uint64(ticks))
	s.lastNano += ticks * s.tickNano
}

// ticks converts a relative TTL to whole wheel ticks, rounding up so a
// positive TTL never becomes immortal.
func (s *shard[K, V]) ticks(ttl time.Duration) uint64 {
	if ttl <= 0 {
		return 0
	}
	t := (int64(ttl) + s.tickNano - 1) / s.tickNano
	return uint64(t)
}
