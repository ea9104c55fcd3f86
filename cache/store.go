package cache

import "context"

// Store is the base Cache: a plain map with no eviction and no special
// retention. It is the innermost layer of every stack and is not safe for
// concurrent use on its own.
type Store[K comparable, V any] struct {
	id string
	m  map[K]V
}

// NewStore returns an empty store identified by id.
func NewStore[K comparable, V any](id string) *Store[K, V] {
	return &Store[K, V]{id: id, m: make(map[K]V)}
}

func (s *Store[K, V]) ID() string { return s.id }
func (s *Store[K, V]) Len() int   { return len(s.m) }

func (s *Store[K, V]) Put(k K, v V) { s.m[k] = v }

// Get never fails.
func (s *Store[K, V]) Get(_ context.Context, k K) (V, bool, error) {
	v, ok := s.m[k]
	return v, ok, nil
}

func (s *Store[K, V]) Remove(k K) (V, bool) {
	v, ok := s.m[k]
	if ok {
		delete(s.m, k)
	}
	return v, ok
}

func (s *Store[K, V]) Clear() { clear(s.m) }

var _ Cache[string, int] = (*Store[string, int])(nil)
