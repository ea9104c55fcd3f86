package cache

import (
	"context"
	"sync"

	"github.com/IvanBrykalov/layercache/policy"
	"github.com/IvanBrykalov/layercache/policy/fifo"
	"github.com/IvanBrykalov/layercache/policy/lru"
	"github.com/IvanBrykalov/layercache/policy/twoq"
)

// Bounded caps the number of resident entries of its delegate. The order in
// which keys are given up is decided by a policy.Policy; eviction happens
// inside the Put that overflows the bound.
//
// Get touches the policy before delegating (hit or miss). Remove is pure
// delegation: the policy keeps tracking a removed key until it ages out, so
// the tracked set is always a superset of the live one.
type Bounded[K comparable, V any] struct {
	inner Cache[K, V]

	mu  sync.Mutex // guards pol
	pol policy.Policy[K]

	// evictFirst removes the victim before the delegate Put instead of after.
	evictFirst bool
	onEvict    []EvictFunc[K]
}

// NewFIFO bounds inner to size entries (1024 when size <= 0), evicting in
// insertion order. The victim is removed before the new value is stored, so
// re-putting the oldest key keeps the fresh value.
func NewFIFO[K comparable, V any](inner Cache[K, V], size int, onEvict ...EvictFunc[K]) *Bounded[K, V] {
	b := NewBounded(inner, fifo.New[K](size), onEvict...)
	b.evictFirst = true
	return b
}

// NewLRU bounds inner to size entries (1024 when size <= 0), evicting the
// least recently touched key.
func NewLRU[K comparable, V any](inner Cache[K, V], size int, onEvict ...EvictFunc[K]) *Bounded[K, V] {
	return NewBounded(inner, lru.New[K](size), onEvict...)
}

// NewTwoQ bounds inner to size entries using the scan-resistant 2Q policy.
func NewTwoQ[K comparable, V any](inner Cache[K, V], size int, onEvict ...EvictFunc[K]) *Bounded[K, V] {
	return NewBounded(inner, twoq.New[K](size), onEvict...)
}

// NewBounded bounds inner with a custom policy. The victim is removed after
// the delegate Put.
func NewBounded[K comparable, V any](inner Cache[K, V], pol policy.Policy[K], onEvict ...EvictFunc[K]) *Bounded[K, V] {
	return &Bounded[K, V]{inner: inner, pol: pol, onEvict: onEvict}
}

func (b *Bounded[K, V]) ID() string { return b.inner.ID() }
func (b *Bounded[K, V]) Len() int   { return b.inner.Len() }

// Capacity returns the configured bound.
func (b *Bounded[K, V]) Capacity() int { return b.pol.Cap() }

func (b *Bounded[K, V]) Put(k K, v V) {
	if b.evictFirst {
		b.admit(k)
		b.inner.Put(k, v)
		return
	}
	b.inner.Put(k, v)
	b.admit(k)
}

func (b *Bounded[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	b.mu.Lock()
	b.pol.OnGet(k)
	b.mu.Unlock()
	return b.inner.Get(ctx, k)
}

func (b *Bounded[K, V]) Remove(k K) (V, bool) { return b.inner.Remove(k) }

func (b *Bounded[K, V]) Clear() {
	b.inner.Clear()
	b.mu.Lock()
	b.pol.Reset()
	b.mu.Unlock()
}

// admit records k with the policy and removes the victim it hands back.
func (b *Bounded[K, V]) admit(k K) {
	b.mu.Lock()
	victim, evict := b.pol.OnPut(k)
	b.mu.Unlock()
	if !evict {
		return
	}
	b.inner.Remove(victim)
	notify(b.onEvict, victim, EvictCapacity)
}

var _ Cache[string, int] = (*Bounded[string, int])(nil)
