// Package buffer provides a fixed-capacity ring buffer for bounded histories.
//
// A [Ring] keeps the most recent N items. Pushing past capacity evicts the
// oldest item, so memory stays bounded no matter how long a session runs:
//
//	r := buffer.NewRing[string](3)
//	for _, s := range []string{"a", "b", "c", "d"} {
//	    r.Push(s)
//	}
//	r.Items() // [b c d]
//
// Ring is not safe for concurrent use; owners guard it with their own lock.
package buffer

// Ring is a fixed-capacity sequence that drops its oldest element on overflow.
type Ring[T any] struct {
	items []T
	head  int // next write position
	size  int
}

// NewRing creates a ring holding at most capacity items.
// A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends item, evicting the oldest element when the ring is full.
// It reports whether an element was evicted.
func (r *Ring[T]) Push(item T) bool {
	evicted := r.size == len(r.items)
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	if !evicted {
		r.size++
	}
	return evicted
}

// Items returns a copy of the buffered elements, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, r.size)
	start := (r.head - r.size + len(r.items)) % len(r.items)
	for i := 0; i < r.size; i++ {
		out = append(out, r.items[(start+i)%len(r.items)])
	}
	return out
}

// Last returns the newest element, if any.
func (r *Ring[T]) Last() (T, bool) {
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.items[(r.head-1+len(r.items))%len(r.items)], true
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.items) }

// Reset drops every element while keeping the capacity.
func (r *Ring[T]) Reset() {
	clear(r.items)
	r.head, r.size = 0, 0
}
