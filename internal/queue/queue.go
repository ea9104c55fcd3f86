// Package queue implements a growable ring deque.
package queue

import "github.com/IvanBrykalov/layercache/internal/util"

const minCap = 8

// Ring is a double-ended queue over a power-of-two ring buffer.
// It is not safe for concurrent use; callers guard it with their own lock.
// Duplicates are allowed.
type Ring[T any] struct {
	buf  []T
	head int // index of the first element
	n    int // number of elements
}

// New returns a ring pre-sized for capacity elements.
func New[T any](capacity int) *Ring[T] {
	r := &Ring[T]{}
	r.Init(capacity)
	return r
}

// Init (re)allocates the buffer and drops all elements.
func (r *Ring[T]) Init(capacity int) {
	if capacity < minCap {
		capacity = minCap
	}
	r.buf = make([]T, util.NextPow2(capacity))
	r.head, r.n = 0, 0
}

// Len returns the number of elements.
func (r *Ring[T]) Len() int { return r.n }

// PushBack appends v at the back.
func (r *Ring[T]) PushBack(v T) {
	r.grow()
	r.buf[r.idx(r.n)] = v
	r.n++
}

// PushFront prepends v at the front.
func (r *Ring[T]) PushFront(v T) {
	r.grow()
	r.head = (r.head - 1) & r.mask()
	r.buf[r.head] = v
	r.n++
}

// PopFront removes and returns the front element.
func (r *Ring[T]) PopFront() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero // drop the reference
	r.head = (r.head + 1) & r.mask()
	r.n--
	return v, true
}

// PopBack removes and returns the back element.
func (r *Ring[T]) PopBack() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	i := r.idx(r.n - 1)
	v := r.buf[i]
	r.buf[i] = zero
	r.n--
	return v, true
}

// At returns the i-th element counting from the front.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("queue: index out of range")
	}
	return r.buf[r.idx(i)]
}

// Clear drops all elements and releases references, keeping the buffer.
func (r *Ring[T]) Clear() {
	clear(r.buf)
	r.head, r.n = 0, 0
}

func (r *Ring[T]) mask() int { return len(r.buf) - 1 }

func (r *Ring[T]) idx(i int) int { return (r.head + i) & r.mask() }

// grow doubles the buffer when full, unrolling the ring into the new slice.
func (r *Ring[T]) grow() {
	if r.buf == nil {
		r.Init(minCap)
		return
	}
	if r.n < len(r.buf) {
		return
	}
	next := make([]T, len(r.buf)*2)
	for i := 0; i < r.n; i++ {
		next[i] = r.buf[r.idx(i)]
	}
	r.buf = next
	r.head = 0
}
