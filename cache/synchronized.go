package cache

import (
	"context"
	"sync"
)

// Synchronized serializes every call to its delegate under one mutex,
// making any stack below it safe for concurrent use.
type Synchronized[K comparable, V any] struct {
	mu    sync.Mutex
	inner Cache[K, V]
}

// NewSynchronized wraps inner.
func NewSynchronized[K comparable, V any](inner Cache[K, V]) *Synchronized[K, V] {
	return &Synchronized[K, V]{inner: inner}
}

func (s *Synchronized[K, V]) ID() string { return s.inner.ID() }

func (s *Synchronized[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Len()
}

func (s *Synchronized[K, V]) Put(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Put(k, v)
}

func (s *Synchronized[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Get(ctx, k)
}

func (s *Synchronized[K, V]) Remove(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Remove(k)
}

func (s *Synchronized[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Clear()
}

var _ Cache[string, int] = (*Synchronized[string, int])(nil)
