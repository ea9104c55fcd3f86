package cache

import "context"

// Instrumented reports lookups and size changes to a Metrics backend.
// Evictions are reported by the listeners Build attaches to the bounded and
// reclaiming layers (see EvictMetrics).
type Instrumented[K comparable, V any] struct {
	inner   Cache[K, V]
	metrics Metrics
}

// NewInstrumented wraps inner. A nil m uses NoopMetrics.
func NewInstrumented[K comparable, V any](inner Cache[K, V], m Metrics) *Instrumented[K, V] {
	if m == nil {
		m = NoopMetrics{}
	}
	return &Instrumented[K, V]{inner: inner, metrics: m}
}

func (c *Instrumented[K, V]) ID() string { return c.inner.ID() }
func (c *Instrumented[K, V]) Len() int   { return c.inner.Len() }

func (c *Instrumented[K, V]) Put(k K, v V) {
	c.inner.Put(k, v)
	c.metrics.Size(c.inner.Len())
}

// Get reports a Hit or a Miss. Failed lookups are not reported.
func (c *Instrumented[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	v, ok, err := c.inner.Get(ctx, k)
	if err != nil {
		return v, ok, err
	}
	if ok {
		c.metrics.Hit()
	} else {
		c.metrics.Miss()
	}
	return v, ok, nil
}

func (c *Instrumented[K, V]) Remove(k K) (V, bool) {
	v, ok := c.inner.Remove(k)
	if ok {
		c.metrics.Size(c.inner.Len())
	}
	return v, ok
}

func (c *Instrumented[K, V]) Clear() {
	c.inner.Clear()
	c.metrics.Size(0)
}

// EvictMetrics adapts m into an EvictFunc.
func EvictMetrics[K comparable](m Metrics) EvictFunc[K] {
	return func(_ K, reason EvictReason) { m.Evict(reason) }
}

var _ Cache[string, int] = (*Instrumented[string, int])(nil)
