package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClock struct{ t atomic.Int64 }

func (f *fakeClock) NowUnixNano() int64  { return f.t.Load() }
func (f *fakeClock) add(d time.Duration) { f.t.Add(int64(d)) }

var errBackend = errors.New("backend down")

// failingCache is a Store whose Get fails while fail is set.
type failingCache[K comparable, V any] struct {
	*Store[K, V]
	fail atomic.Bool
}

func newFailing[K comparable, V any](id string) *failingCache[K, V] {
	return &failingCache[K, V]{Store: NewStore[K, V](id)}
}

func (f *failingCache[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	if f.fail.Load() {
		var zero V
		return zero, false, errBackend
	}
	return f.Store.Get(ctx, k)
}

// countingMetrics records every hook call.
type countingMetrics struct {
	hits, misses atomic.Int64

	mu     sync.Mutex
	evicts map[EvictReason]int
	size   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{evicts: make(map[EvictReason]int)}
}

func (m *countingMetrics) Hit()  { m.hits.Add(1) }
func (m *countingMetrics) Miss() { m.misses.Add(1) }

func (m *countingMetrics) Evict(r EvictReason) {
	m.mu.Lock()
	m.evicts[r]++
	m.mu.Unlock()
}

func (m *countingMetrics) Size(n int) {
	m.mu.Lock()
	m.size = n
	m.mu.Unlock()
}

func (m *countingMetrics) evicted(r EvictReason) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evicts[r]
}

func (m *countingMetrics) lastSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// get is a test shortcut that ignores the error.
func get[K comparable, V any](c Cache[K, V], k K) (V, bool) {
	v, ok, _ := c.Get(context.Background(), k)
	return v, ok
}
