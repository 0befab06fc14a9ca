// Package cachekit is a family of bounded, generic in-memory caches with
// pluggable eviction behavior — LRU, LRU-K, LFU and ARC — built on shared
// intrusive machinery: a handle arena (package slab), handle-addressed
// doubly linked lists, and a hierarchical timer wheel (package timerwheel)
// for tick-based TTL.
//
// Layout
//
//   - slab:       reusable-slot arena; stable integer handles, LIFO reuse,
//     Reinit capability for cheap slot recycling.
//   - fixvec:     bounded doubly linked list addressed by handles.
//   - timerwheel: hierarchical expiry wheel (hour/minute/second style rings).
//   - lru, lruk, lfu, arc: the cache cores. Single-owner, O(1) operations,
//     each a hash index over handles into intrusive lists in one arena.
//   - cache:      a thread-safe sharded facade over any core, with metrics,
//     eviction callbacks and singleflight loading.
//   - metrics/prom: Prometheus adapter for the facade's Metrics hooks.
//
// The cores deliberately expose no interior mutability: a Get reorders, so
// sharing one across goroutines requires an external lock. Package cache is
// that lock, sharded.
//
// Basic usage
//
//	c := lru.New[string, string](1024)
//	c.Insert("a", "1")
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// With TTL (ticks are caller-paced; here one tick = one second)
//
//	c := lru.New[string, []byte](1024)
//	c.InsertWithTTL("session", payload, 30) // 30 ticks
//	c.Advance(31)                           // "session" is gone
//
// Concurrent, with metrics
//
//	cc := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 100_000,
//	    Store:    cache.ARC[string, string](),
//	    Metrics:  prom.New(nil, "app", "cache", nil),
//	})
//	cc.Set("a", "1")
package cachekit
