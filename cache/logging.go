package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/layercache/internal/util"
)

// Logging counts lookups and hits and logs the running hit ratio at debug
// level after every Get. Counters are atomic; Logging adds no locking.
type Logging[K comparable, V any] struct {
	inner  Cache[K, V]
	logger *zap.Logger

	requests util.PaddedAtomicInt64
	hits     util.PaddedAtomicInt64
}

// NewLogging wraps inner. A nil logger disables output but keeps counting.
func NewLogging[K comparable, V any](inner Cache[K, V], logger *zap.Logger) *Logging[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging[K, V]{inner: inner, logger: logger}
}

func (l *Logging[K, V]) ID() string   { return l.inner.ID() }
func (l *Logging[K, V]) Len() int     { return l.inner.Len() }
func (l *Logging[K, V]) Put(k K, v V) { l.inner.Put(k, v) }
func (l *Logging[K, V]) Clear()       { l.inner.Clear() }

func (l *Logging[K, V]) Remove(k K) (V, bool) { return l.inner.Remove(k) }

// Get delegates and records the outcome. Failed lookups count as requests
// without a hit.
func (l *Logging[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	l.requests.Add(1)
	v, ok, err := l.inner.Get(ctx, k)
	if ok && err == nil {
		l.hits.Add(1)
	}
	if ce := l.logger.Check(zap.DebugLevel, "cache hit ratio"); ce != nil {
		ce.Write(
			zap.String("cache", l.inner.ID()),
			zap.Float64("hit_ratio", l.HitRatio()),
		)
	}
	return v, ok, err
}

// HitRatio returns hits/requests, or 0 before the first Get.
func (l *Logging[K, V]) HitRatio() float64 {
	req := l.requests.Load()
	if req == 0 {
		return 0
	}
	return float64(l.hits.Load()) / float64(req)
}

// Requests returns the number of Get calls seen.
func (l *Logging[K, V]) Requests() int64 { return l.requests.Load() }

var _ Cache[string, int] = (*Logging[string, int])(nil)
