package cache

import "context"

// Cache is the contract shared by the base store and every decorator.
// A decorator implements Cache by wrapping another Cache and adding one
// policy, so stacks are assembled by plain construction-time wrapping.
//
// Concurrency depends on the stack: Store alone is not safe for concurrent
// use; wrap it with Synchronized (or build it with Build) before sharing it
// between goroutines. The bounded and reclaiming decorators guard their own
// bookkeeping.
type Cache[K comparable, V any] interface {
	// ID identifies the cache instance (not a key). Decorators report the
	// id of the store they wrap.
	ID() string

	// Len returns the number of resident entries as last observed. Entries
	// reclaimed concurrently may still be counted.
	Len() int

	// Put stores v under k.
	Put(k K, v V)

	// Get returns the value stored under k and a presence flag.
	// Only Blocking stacks block here; only Blocking and Serialized add
	// failure modes. Errors from inner layers propagate unchanged.
	Get(ctx context.Context, k K) (V, bool, error)

	// Remove deletes k and returns the previous value if there was one.
	// Some decorators use it purely to release per-key state.
	Remove(k K) (V, bool)

	// Clear drops every entry.
	Clear()
}

// EvictReason explains why a decorator dropped an entry on its own.
type EvictReason int

const (
	// EvictCapacity: removed by a bounded policy (FIFO/LRU/2Q) to stay within size.
	EvictCapacity EvictReason = iota
	// EvictReclaimed: the value was reclaimed by the memory reclaimer
	// (Soft/Weak) and the entry was purged.
	EvictReclaimed
)

// String returns a stable label for r.
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictReclaimed:
		return "reclaimed"
	default:
		return "unknown"
	}
}

// EvictFunc observes policy-driven evictions. It is called synchronously
// from the triggering operation; keep it lightweight.
type EvictFunc[K comparable] func(k K, reason EvictReason)

// Trimmer is implemented by caches that can release strongly held values
// on request (memory pressure).
type Trimmer interface {
	ID() string
	// Trim demotes strongly held values until at most target remain and
	// returns how many were demoted.
	Trim(target int) int
}

// Releaser is implemented by caches that keep per-key state between a
// missing Get and the Put that resolves it (Blocking, and stacks built on
// it). Release drops that state without touching stored values.
type Releaser[K comparable] interface {
	Release(k K) bool
}

func notify[K comparable](fns []EvictFunc[K], k K, reason EvictReason) {
	for _, fn := range fns {
		if fn != nil {
			fn(k, reason)
		}
	}
}
