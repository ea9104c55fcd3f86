package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// Scheduled flushes its delegate once interval has passed since the last
// flush. There is no timer: the flush happens inside the first Len, Put,
// Get or Remove that notices the interval is over.
type Scheduled[K comparable, V any] struct {
	inner     Cache[K, V]
	interval  int64 // nanoseconds
	clock     Clock
	lastClear atomic.Int64
}

// NewScheduled wraps inner. A nil clock uses wall time. A non-positive
// interval disables flushing.
func NewScheduled[K comparable, V any](inner Cache[K, V], interval time.Duration, clock Clock) *Scheduled[K, V] {
	if clock == nil {
		clock = wallClock{}
	}
	s := &Scheduled[K, V]{inner: inner, interval: int64(interval), clock: clock}
	s.lastClear.Store(clock.NowUnixNano())
	return s
}

func (s *Scheduled[K, V]) ID() string { return s.inner.ID() }

// Interval returns the flush interval.
func (s *Scheduled[K, V]) Interval() time.Duration { return time.Duration(s.interval) }

func (s *Scheduled[K, V]) Len() int {
	s.clearWhenStale()
	return s.inner.Len()
}

func (s *Scheduled[K, V]) Put(k K, v V) {
	s.clearWhenStale()
	s.inner.Put(k, v)
}

func (s *Scheduled[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	s.clearWhenStale()
	return s.inner.Get(ctx, k)
}

func (s *Scheduled[K, V]) Remove(k K) (V, bool) {
	s.clearWhenStale()
	return s.inner.Remove(k)
}

func (s *Scheduled[K, V]) Clear() {
	s.lastClear.Store(s.clock.NowUnixNano())
	s.inner.Clear()
}

// clearWhenStale flushes the delegate if the interval is over. Only the
// caller that wins the swap flushes.
func (s *Scheduled[K, V]) clearWhenStale() bool {
	if s.interval <= 0 {
		return false
	}
	now := s.clock.NowUnixNano()
	last := s.lastClear.Load()
	if now-last <= s.interval {
		return false
	}
	if !s.lastClear.CompareAndSwap(last, now) {
		return false
	}
	s.inner.Clear()
	return true
}

var _ Cache[string, int] = (*Scheduled[string, int])(nil)
