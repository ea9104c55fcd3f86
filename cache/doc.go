// Package cache provides a generic in-process cache assembled from small
// decorators. Every layer implements Cache and wraps another Cache; the
// innermost layer is a plain map (Store). Behavior comes from what you stack
// on top of it.
//
// Layers
//
//   - Bounded eviction: NewFIFO (insertion order), NewLRU (access order) and
//     NewTwoQ (scan-resistant 2Q). The entry that overflows the bound is
//     removed inside the Put that caused it.
//
//   - Reclaimable retention: NewSoft and NewWeak store values behind Ref
//     handles built on weak.Pointer, so the garbage collector can take them
//     back. Reclaimed entries are purged from the stack on the next
//     operation. A Weak value lives only while something else holds it; a
//     Soft value is pinned until Trim demotes it (see package pressure).
//     Both keep the most recently read values in a bounded strong ring.
//
//   - Single-flight loading: NewBlocking keeps a key locked between a missing
//     Get and the Put (or Remove) that resolves it, so one caller loads and
//     the others wait. Use Load to follow the protocol.
//
//   - Support: NewSynchronized (one mutex around the delegate),
//     NewLogging (hit ratio via zap), NewScheduled (periodic flush),
//     NewSerialized (msgpack copies on every read) and NewInstrumented
//     (Metrics hooks).
//
// Any order is legal and lookups stay transparent, but Blocking should be
// the outermost layer so a waiting caller never holds another layer's lock.
//
// Basic usage
//
//	store := cache.NewStore[string, []byte]("users")
//	c := cache.NewSynchronized[string, []byte](cache.NewLRU[string, []byte](store, 10_000))
//	c.Put("a", []byte("1"))
//	if v, ok, _ := c.Get(ctx, "a"); ok {
//	    _ = v
//	}
//
// Single-flight loading
//
//	lru := cache.NewLRU[string, []byte](store, 1024)
//	c := cache.NewBlocking[string, []byte](cache.NewSynchronized[string, []byte](lru), time.Second)
//	v, err := cache.Load[string, []byte](ctx, c, "key", func(ctx context.Context) ([]byte, error) {
//	    return fetch(ctx, "key") // runs once per miss; other readers wait
//	})
//
// From configuration
//
//	s, err := cache.Build[string, []byte](config.Namespace{
//	    Namespace: "users.UserMapper",
//	    Eviction:  config.EvictionLRU,
//	    Reference: config.ReferenceSoft,
//	    Blocking:  true,
//	}, cache.BuildOptions{Logger: logger, Metrics: prom.New(nil, "app", "users", nil)})
//
// Thread-safety
//
// Store is not safe for concurrent use. The bounded, reclaiming, blocking
// and counting layers guard their own state, so a stack is safe once
// Synchronized sits above the Store (Build always adds it).
package cache
