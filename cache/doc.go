// Package cache wraps the single-owner cachekit stores (lru, lruk, lfu, arc)
// into a fast, generic, sharded cache that is safe for concurrent use.
//
// Design
//
//   - Concurrency: the cache is split into shards, each protected by a
//     mutex guarding one store. The default shard count is a power-of-two
//     heuristic from CPU parallelism. The cores stay single-owner; the shard
//     lock is exactly the "external lock around the whole cache" they ask
//     callers for.
//
//   - Policies: the Store factory picks the eviction policy per shard —
//     LRU (default), LRUK, LFU or ARC — all exposing the same
//     cachekit.Store capability.
//
//   - TTL: entries can have per-item TTLs. Wall-clock durations are
//     converted to ticks of the store's hierarchical timer wheel
//     (TickDuration per tick); each shard advances its wheel lazily on
//     access, and the cores also expire lazily on read.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     singleflight. If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics by default; metrics/prom exports them to Prometheus.
//
//   - Callbacks: Options.OnEvict(k, v, reason) fires for every capacity- or
//     TTL-driven eviction.
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// Using an alternative policy
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 50_000,
//	    Store:    cache.ARC[string, string](),
//	})
package cache
