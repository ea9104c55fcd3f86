// Package twoq implements the 2Q eviction policy.
package twoq

import (
	"github.com/IvanBrykalov/layercache/internal/list"
	"github.com/IvanBrykalov/layercache/policy"
)

// twoQ implements the 2Q eviction policy.
//
// Resident queues:
//   - A1in (younger queue): admits first-time keys in FIFO order.
//   - Am   (mature queue):  keys touched again after admission, in LRU order.
//
// Ghost A1out: keys only, tracks recently evicted A1in keys to give them
// a second chance (bypass A1in on re-admission).
type twoQ[K comparable] struct {
	cap      int // total resident capacity (A1in + Am)
	capIn    int // A1in capacity
	capGhost int // A1out capacity

	in    *list.List[K] // A1in: MRU at front
	am    *list.List[K] // Am:   MRU at front
	ghost *list.List[K] // A1out: MRU at front
}

// New constructs a 2Q policy bounded to size resident keys, with A1in at
// 25% of size and the ghost list at 50% (both at least 1).
func New[K comparable](size int) policy.Policy[K] {
	c := policy.Capacity(size)
	return NewWithQueues[K](c, c/4, c/2)
}

// NewWithQueues constructs a 2Q policy with explicit queue sizes.
func NewWithQueues[K comparable](size, capIn, capGhost int) policy.Policy[K] {
	c := policy.Capacity(size)
	if capIn < 1 {
		capIn = 1
	}
	if capGhost < 1 {
		capGhost = 1
	}
	return &twoQ[K]{
		cap:      c,
		capIn:    capIn,
		capGhost: capGhost,
		in:       list.New[K](capIn),
		am:       list.New[K](c),
		ghost:    list.New[K](capGhost),
	}
}

// OnGet: a hit in A1in promotes the key to Am; a hit in Am moves it to MRU.
func (q *twoQ[K]) OnGet(k K) {
	if q.in.Remove(k) {
		q.am.PushFront(k)
		return
	}
	q.am.MoveToFront(k)
}

// OnPut admission rules:
//   - A resident key is treated as a touch.
//   - A key present in ghosts bypasses A1in and goes straight to Am.
//   - Otherwise the key enters A1in.
//
// Once the resident set exceeds cap, the victim is the A1in tail when A1in
// is over its share (its key becomes a ghost), else the Am tail.
func (q *twoQ[K]) OnPut(k K) (victim K, evict bool) {
	switch {
	case q.in.Contains(k) || q.am.Contains(k):
		q.OnGet(k)
	case q.ghost.Remove(k):
		q.am.PushFront(k)
	default:
		q.in.PushFront(k)
	}

	if q.in.Len()+q.am.Len() <= q.cap {
		return victim, false
	}
	if q.in.Len() > q.capIn || q.am.Len() == 0 {
		victim, evict = q.in.PopBack()
		if evict {
			q.remember(victim)
		}
		return victim, evict
	}
	return q.am.PopBack()
}

// remember records k in the ghost list, dropping the oldest ghosts over capGhost.
func (q *twoQ[K]) remember(k K) {
	q.ghost.PushFront(k)
	for q.ghost.Len() > q.capGhost {
		q.ghost.PopBack()
	}
}

func (q *twoQ[K]) Reset() {
	q.in.Reset()
	q.am.Reset()
	q.ghost.Reset()
}

func (q *twoQ[K]) Len() int { return q.in.Len() + q.am.Len() }
func (q *twoQ[K]) Cap() int { return q.cap }
