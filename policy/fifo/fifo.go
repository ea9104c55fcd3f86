// Package fifo implements the insertion-order eviction policy.
package fifo

import (
	"github.com/IvanBrykalov/layercache/internal/queue"
	"github.com/IvanBrykalov/layercache/policy"
)

// fifo records every admission in a ring; re-admitting a key appends it
// again. Access order is ignored.
type fifo[K comparable] struct {
	q   *queue.Ring[K]
	cap int
}

// New returns a FIFO policy bounded to size positions (policy.DefaultCapacity
// when size <= 0).
func New[K comparable](size int) policy.Policy[K] {
	c := policy.Capacity(size)
	return &fifo[K]{q: queue.New[K](c + 1), cap: c}
}

// OnGet is a no-op: FIFO does not consider recency.
func (p *fifo[K]) OnGet(K) {}

// OnPut appends the key and, once over capacity, pops the oldest position.
func (p *fifo[K]) OnPut(k K) (victim K, evict bool) {
	p.q.PushBack(k)
	if p.q.Len() > p.cap {
		return p.q.PopFront()
	}
	return victim, false
}

func (p *fifo[K]) Reset()   { p.q.Clear() }
func (p *fifo[K]) Len() int { return p.q.Len() }
func (p *fifo[K]) Cap() int { return p.cap }
