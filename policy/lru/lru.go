// Package lru implements the LRU eviction policy.
package lru

import (
	"github.com/IvanBrykalov/layercache/internal/list"
	"github.com/IvanBrykalov/layercache/policy"
)

// lru is a classic "move-to-front" Least-Recently-Used policy over a
// keyed intrusive list (head=MRU, tail=LRU).
type lru[K comparable] struct {
	l   *list.List[K]
	cap int
}

// New returns an LRU policy bounded to size keys (policy.DefaultCapacity
// when size <= 0).
func New[K comparable](size int) policy.Policy[K] {
	c := policy.Capacity(size)
	return &lru[K]{l: list.New[K](c + 1), cap: c}
}

// OnGet promotes a tracked key to MRU. Untracked keys are ignored.
func (p *lru[K]) OnGet(k K) { p.l.MoveToFront(k) }

// OnPut places the key at MRU and, once over capacity, gives up the LRU key.
// The key just put is at the head, so it is never its own victim.
func (p *lru[K]) OnPut(k K) (victim K, evict bool) {
	p.l.PushFront(k)
	if p.l.Len() > p.cap {
		return p.l.PopBack()
	}
	return victim, false
}

func (p *lru[K]) Reset()   { p.l.Reset() }
func (p *lru[K]) Len() int { return p.l.Len() }
func (p *lru[K]) Cap() int { return p.cap }
