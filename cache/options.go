package cache

import (
	"context"
	"time"

	"github.com/IvanBrykalov/cachekit"
	"github.com/IvanBrykalov/cachekit/arc"
	"github.com/IvanBrykalov/cachekit/lfu"
	"github.com/IvanBrykalov/cachekit/lru"
	"github.com/IvanBrykalov/cachekit/lruk"
)

// StoreFactory builds one single-owner store per shard. The factories below
// cover the bundled policies; any cachekit.Store implementation works.
type StoreFactory[K comparable, V any] func(capacity int) cachekit.Store[K, V]

// LRU selects the plain least-recently-used store (the default).
func LRU[K comparable, V any]() StoreFactory[K, V] {
	return func(capacity int) cachekit.Store[K, V] { return lru.New[K, V](capacity) }
}

// LRUK selects an LRU-K store promoting entries after times touches.
func LRUK[K comparable, V any](times uint32) StoreFactory[K, V] {
	return func(capacity int) cachekit.Store[K, V] { return lruk.WithTimes[K, V](capacity, times) }
}

// LFU selects a least-frequently-used store. reduceCount arms frequency
// decay (0 leaves it off).
func LFU[K comparable, V any](reduceCount uint64) StoreFactory[K, V] {
	return func(capacity int) cachekit.Store[K, V] {
		c := lfu.New[K, V](capacity)
		c.SetReduceCount(reduceCount)
		return c
	}
}

// ARC selects an adaptive replacement store.
func ARC[K comparable, V any]() StoreFactory[K, V] {
	return func(capacity int) cachekit.Store[K, V] { return arc.New[K, V](capacity) }
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason cachekit.EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Zero values are safe; sane defaults
// are applied in New():
//   - nil Store        => LRU
//   - Shards <= 0      => auto (rounded up to power of two)
//   - nil Metrics      => NoopMetrics
//   - TickDuration <= 0 => 100ms
type Options[K comparable, V any] struct {
	// Capacity is the total live-entry limit, split evenly across shards.
	Capacity int

	// Shards defines the number of shards. If 0, an automatic value is chosen
	// (≈ 2*GOMAXPROCS) and rounded to the next power of two.
	Shards int

	// Store picks the eviction policy per shard; nil => LRU.
	Store StoreFactory[K, V]

	// TickDuration is the wall-clock size of one TTL tick. Each shard
	// advances its store's timer wheel lazily from the Clock, so expiry
	// resolution equals one tick.
	TickDuration time.Duration

	// DefaultTTL applies to Add/Set when no per-key TTL is given (0 = none).
	DefaultTTL time.Duration

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called for every capacity- or TTL-driven eviction, under the
	// shard lock; keep callbacks lightweight.
	OnEvict func(k K, v V, reason cachekit.EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals.
	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}
