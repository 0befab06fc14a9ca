// Package hlist provides intrusive doubly linked lists whose nodes live in a
// shared slab arena and are addressed by handles.
//
// The list owns nothing: it is just a head/tail pair plus the Links field
// embedded in each arena entry. Several lists may run through the same arena
// (ARC's T1/T2/B1/B2, LFU's frequency buckets); an entry belongs to at most
// one list at a time and the owning cache records which with its own tag.
package hlist

import "github.com/IvanBrykalov/cachekit/slab"

// Links are the intrusive prev/next fields. Embed one per entry; all list
// operations go through List, never through Links directly.
type Links struct {
	prev, next slab.Handle
}

// List is a doubly linked list over entries stored in arena.
// links maps an entry to its embedded Links; every list running through the
// same arena must use the same accessor.
type List[T any] struct {
	arena *slab.Slab[T]
	links func(*T) *Links
	head  slab.Handle
	tail  slab.Handle
	n     int
}

// New returns an empty list over arena.
func New[T any](arena *slab.Slab[T], links func(*T) *Links) List[T] {
	return List[T]{arena: arena, links: links, head: slab.None, tail: slab.None}
}

// Len returns the number of linked entries.
func (l *List[T]) Len() int { return l.n }

// Front returns the head handle (MRU position), or slab.None.
func (l *List[T]) Front() slab.Handle { return l.head }

// Back returns the tail handle (eviction candidate), or slab.None.
func (l *List[T]) Back() slab.Handle { return l.tail }

// PushFront links h at the head.
func (l *List[T]) PushFront(h slab.Handle) {
	ln := l.links(l.arena.Get(h))
	ln.prev = slab.None
	ln.next = l.head
	if l.head != slab.None {
		l.links(l.arena.Get(l.head)).prev = h
	}
	l.head = h
	if l.tail == slab.None {
		l.tail = h
	}
	l.n++
}

// PushBack links h at the tail.
func (l *List[T]) PushBack(h slab.Handle) {
	ln := l.links(l.arena.Get(h))
	ln.next = slab.None
	ln.prev = l.tail
	if l.tail != slab.None {
		l.links(l.arena.Get(l.tail)).next = h
	}
	l.tail = h
	if l.head == slab.None {
		l.head = h
	}
	l.n++
}

// Unlink detaches h from the list. h must be linked in this list.
func (l *List[T]) Unlink(h slab.Handle) {
	ln := l.links(l.arena.Get(h))
	if ln.prev != slab.None {
		l.links(l.arena.Get(ln.prev)).next = ln.next
	} else {
		l.head = ln.next
	}
	if ln.next != slab.None {
		l.links(l.arena.Get(ln.next)).prev = ln.prev
	} else {
		l.tail = ln.prev
	}
	ln.prev, ln.next = slab.None, slab.None
	l.n--
}

// MoveToFront relinks h at the head. This is the hot path for LRU touches.
func (l *List[T]) MoveToFront(h slab.Handle) {
	if l.head == h {
		return
	}
	l.Unlink(h)
	l.PushFront(h)
}

// PopBack unlinks and returns the tail handle, or slab.None when empty.
func (l *List[T]) PopBack() slab.Handle {
	h := l.tail
	if h != slab.None {
		l.Unlink(h)
	}
	return h
}

// Next returns the handle after h (toward the tail), or slab.None.
func (l *List[T]) Next(h slab.Handle) slab.Handle {
	return l.links(l.arena.Get(h)).next
}

// Prev returns the handle before h (toward the head), or slab.None.
func (l *List[T]) Prev(h slab.Handle) slab.Handle {
	return l.links(l.arena.Get(h)).prev
}

// Clear forgets all membership. Entries' stale links are rewritten the next
// time they are pushed; the arena is cleaned up by the caller.
func (l *List[T]) Clear() {
	l.head, l.tail = slab.None, slab.None
	l.n = 0
}
