package cache

import (
	"fmt"

	"github.com/IvanBrykalov/layercache/config"
)

// Stack is a cache assembled by Build. It behaves as the outermost layer
// and keeps handles on the layers other components need to reach.
type Stack[K comparable, V any] struct {
	Cache[K, V]

	ns      config.Namespace
	trimmer Trimmer
}

// Namespace returns the configuration the stack was built from.
func (s *Stack[K, V]) Namespace() config.Namespace { return s.ns }

// Trimmer returns the soft layer of the stack, if it has one.
func (s *Stack[K, V]) Trimmer() (Trimmer, bool) {
	return s.trimmer, s.trimmer != nil
}

// Release frees per-key lock state when the stack is blocking. It never
// deletes a value.
func (s *Stack[K, V]) Release(k K) bool {
	if r, ok := s.Cache.(Releaser[K]); ok {
		return r.Release(k)
	}
	return false
}

// Build composes a stack for ns, innermost first:
//
//	Store -> eviction -> reference tier -> Scheduled -> Serialized ->
//	Logging -> Synchronized -> Instrumented -> Blocking
//
// Optional layers are skipped when ns leaves them off. The result is safe
// for concurrent use.
func Build[K comparable, V any](ns config.Namespace, opts BuildOptions) (*Stack[K, V], error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}

	var evicts []EvictFunc[K]
	if opts.Metrics != nil {
		evicts = append(evicts, EvictMetrics[K](opts.Metrics))
	}

	var (
		c       Cache[K, V]
		trimmer Trimmer
		err     error
	)
	if ns.ReadWrite {
		var raw Cache[K, []byte]
		raw, trimmer, err = buildCore[K, []byte](ns, opts.Clock, evicts)
		if err != nil {
			return nil, err
		}
		c = NewSerialized[K, V](raw, opts.logger())
	} else {
		c, trimmer, err = buildCore[K, V](ns, opts.Clock, evicts)
		if err != nil {
			return nil, err
		}
	}

	if ns.Logging {
		c = NewLogging(c, opts.logger())
	}
	c = NewSynchronized(c)
	if opts.Metrics != nil {
		c = NewInstrumented(c, opts.Metrics)
	}
	if ns.Blocking {
		c = NewBlocking(c, ns.Timeout)
	}
	return &Stack[K, V]{Cache: c, ns: ns, trimmer: trimmer}, nil
}

// buildCore assembles the store, eviction, reference and flush layers for
// values of type T.
func buildCore[K comparable, T any](ns config.Namespace, clock Clock, evicts []EvictFunc[K]) (Cache[K, T], Trimmer, error) {
	var (
		c       Cache[K, T]
		trimmer Trimmer
	)
	switch ref := ns.ReferenceOrDefault(); ref {
	case config.ReferenceStrong:
		bounded, err := withEviction[K, T](NewStore[K, T](ns.Namespace), ns, evicts)
		if err != nil {
			return nil, nil, err
		}
		c = bounded
	case config.ReferenceSoft, config.ReferenceWeak:
		bounded, err := withEviction[K, *Ref[K, T]](NewStore[K, *Ref[K, T]](ns.Namespace), ns, evicts)
		if err != nil {
			return nil, nil, err
		}
		if ref == config.ReferenceSoft {
			soft := NewSoft(bounded, ns.Ring, evicts...)
			c, trimmer = soft, soft
		} else {
			c = NewWeak(bounded, ns.Ring, evicts...)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s: unknown reference %q", config.ErrInvalid, ns.Namespace, ref)
	}

	if ns.FlushInterval > 0 {
		c = NewScheduled(c, ns.FlushInterval, clock)
	}
	return c, trimmer, nil
}

func withEviction[K comparable, T any](inner Cache[K, T], ns config.Namespace, evicts []EvictFunc[K]) (Cache[K, T], error) {
	switch ev := ns.EvictionOrDefault(); ev {
	case config.EvictionLRU:
		return NewLRU(inner, ns.Size, evicts...), nil
	case config.EvictionFIFO:
		return NewFIFO(inner, ns.Size, evicts...), nil
	case config.Eviction2Q:
		return NewTwoQ(inner, ns.Size, evicts...), nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown eviction %q", config.ErrInvalid, ns.Namespace, ev)
	}
}
