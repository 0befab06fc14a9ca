// Package expiry is the TTL plumbing shared by the cache cores: a timer
// wheel keyed by cache keys plus the tick clock the lazy read-side checks
// compare against.
package expiry

import "github.com/IvanBrykalov/cachekit/timerwheel"

// Item is a scheduled expiry: which key dies, and in how many ticks.
type Item[K comparable] struct {
	Key   K
	Ticks uint64
}

// When implements timerwheel.Timer.
func (it Item[K]) When() uint64 { return it.Ticks }

// Queue owns a cache's timer wheel and its tick cursor. Caches create one
// lazily on first TTL use; a nil *Queue means the cache has no TTL state.
type Queue[K comparable] struct {
	wheel *timerwheel.Wheel[Item[K]]
	now   uint64
}

// New returns a Queue with an hour/minute/second ring layout over the base
// tick, which covers any delay (farther deadlines park and re-cascade).
func New[K comparable]() *Queue[K] {
	w := timerwheel.New[Item[K]]()
	w.AppendWheel(12, 3600, "hour")
	w.AppendWheel(60, 60, "minute")
	w.AppendWheel(60, 1, "tick")
	return &Queue[K]{wheel: w}
}

// Now returns the current tick.
func (q *Queue[K]) Now() uint64 {
	if q == nil {
		return 0
	}
	return q.now
}

// Schedule arms an expiry for k after ticks (clamped to at least one) and
// returns the absolute deadline tick and the timer id for cancellation.
func (q *Queue[K]) Schedule(k K, ticks uint64) (deadline, id uint64) {
	if ticks == 0 {
		ticks = 1
	}
	id = q.wheel.AddTimer(Item[K]{Key: k, Ticks: ticks})
	return q.now + ticks, id
}

// Cancel disarms a previously scheduled expiry.
func (q *Queue[K]) Cancel(id uint64) {
	if q != nil {
		q.wheel.DelTimer(id)
	}
}

// Advance moves the clock by ticks and calls expire for every key whose
// timer came due, in due order.
func (q *Queue[K]) Advance(ticks uint64, expire func(K)) {
	q.now += ticks
	for _, it := range q.wheel.Advance(ticks) {
		expire(it.Key)
	}
}

// Clear cancels all pending expiries; the clock keeps its position.
func (q *Queue[K]) Clear() {
	if q != nil {
		q.wheel.Clear()
	}
}
