// Package slab implements a reusable-slot arena with stable integer handles.
//
// A Slab hands out Handles instead of pointers: a Handle stays valid for the
// lifetime of its slot and is cheap to store in maps and intrusive links.
// Freed slots go on a LIFO free list and are reused by the next allocation,
// keeping the arena dense and allocation amortized O(1).
//
// Freed slots keep their value. ReinitNext exploits that: instead of
// constructing a fresh value it hands back the previous occupant reset to its
// empty state, so heap-backed sub-allocations (string buffers, slices) get
// recycled rather than reallocated.
package slab

// Handle addresses a slot in a Slab. Handles of freed slots are reused by
// later allocations; a stale Handle must not be dereferenced.
type Handle int

// None is the nil Handle.
const None Handle = -1

// occupied marks a slot that currently holds a value; any other next value
// threads the free list.
const occupied Handle = -2

// Reinit is the capability ReinitNext looks for on *T: reset the receiver to
// its canonical empty state without releasing heap sub-allocations (clear a
// buffer, truncate a slice). Types that cannot express this cheaply simply
// don't implement it and get zeroed instead.
type Reinit interface {
	Reinit()
}

type slot[T any] struct {
	val  T
	next Handle
}

// Slab is a growable arena of reusable slots. The zero value is not ready to
// use; call New or WithCapacity.
type Slab[T any] struct {
	slots []slot[T]
	n     int
	free  Handle
}

// New returns an empty Slab.
func New[T any]() *Slab[T] {
	return &Slab[T]{free: None}
}

// WithCapacity returns an empty Slab with room for n slots pre-reserved.
func WithCapacity[T any](n int) *Slab[T] {
	return &Slab[T]{slots: make([]slot[T], 0, n), free: None}
}

// Len returns the number of occupied slots.
func (s *Slab[T]) Len() int { return s.n }

// Cap returns the total number of slots, occupied or free.
func (s *Slab[T]) Cap() int { return len(s.slots) }

// IsEmpty reports whether no slot is occupied.
func (s *Slab[T]) IsEmpty() bool { return s.n == 0 }

// Clear drops all slots, occupied and free.
func (s *Slab[T]) Clear() {
	s.slots = s.slots[:0]
	s.n = 0
	s.free = None
}

// Next claims a slot and returns its handle. The most recently freed slot is
// reused first; its previous value is left as-is (see ReinitNext).
func (s *Slab[T]) Next() Handle {
	if s.free == None {
		s.slots = append(s.slots, slot[T]{next: occupied})
		s.n++
		return Handle(len(s.slots) - 1)
	}
	h := s.free
	s.free = s.slots[h].next
	s.slots[h].next = occupied
	s.n++
	return h
}

// NextVal claims a slot and returns its handle together with a pointer to the
// (possibly stale) value in it.
func (s *Slab[T]) NextVal() (Handle, *T) {
	h := s.Next()
	return h, &s.slots[h].val
}

// ReinitNext claims a slot and resets its value: via the Reinit capability if
// *T implements it, otherwise by zeroing. The reused slot keeps whatever heap
// sub-allocations Reinit chose to retain.
func (s *Slab[T]) ReinitNext() (Handle, *T) {
	h := s.Next()
	v := &s.slots[h].val
	if r, ok := any(v).(Reinit); ok {
		r.Reinit()
	} else {
		var zero T
		*v = zero
	}
	return h, v
}

// Insert stores v in a claimed slot and returns its handle.
func (s *Slab[T]) Insert(v T) Handle {
	h := s.Next()
	s.slots[h].val = v
	return h
}

// Get returns a pointer to the value in an occupied slot.
// It panics on a vacant or out-of-range handle: that is a double-free class
// bug in the caller, not a recoverable condition.
func (s *Slab[T]) Get(h Handle) *T {
	if !s.Contains(h) {
		panic("slab: get of vacant handle")
	}
	return &s.slots[h].val
}

// TryGet returns the value pointer for h, or false if h is vacant.
func (s *Slab[T]) TryGet(h Handle) (*T, bool) {
	if !s.Contains(h) {
		return nil, false
	}
	return &s.slots[h].val, true
}

// Contains reports whether h names an occupied slot.
func (s *Slab[T]) Contains(h Handle) bool {
	return h >= 0 && int(h) < len(s.slots) && s.slots[h].next == occupied
}

// Remove frees an occupied slot. Freeing an already-free handle panics.
// The value is intentionally kept in the slot for reuse by ReinitNext.
func (s *Slab[T]) Remove(h Handle) {
	if !s.TryRemove(h) {
		panic("slab: remove of vacant handle")
	}
}

// TryRemove frees the slot if it is occupied and reports whether it did.
func (s *Slab[T]) TryRemove(h Handle) bool {
	if !s.Contains(h) {
		return false
	}
	s.slots[h].next = s.free
	s.free = h
	s.n--
	return true
}

// Range calls f for every occupied slot in handle order until f returns false.
func (s *Slab[T]) Range(f func(h Handle, v *T) bool) {
	for i := range s.slots {
		if s.slots[i].next != occupied {
			continue
		}
		if !f(Handle(i), &s.slots[i].val) {
			return
		}
	}
}

// Retain frees every occupied slot for which f returns false.
func (s *Slab[T]) Retain(f func(h Handle, v *T) bool) {
	for i := range s.slots {
		if s.slots[i].next != occupied {
			continue
		}
		if !f(Handle(i), &s.slots[i].val) {
			s.TryRemove(Handle(i))
		}
	}
}
