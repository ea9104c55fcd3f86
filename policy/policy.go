// Package policy defines the order-tracking contract used by the bounded
// cache decorators. A policy only tracks keys; the decorator owns the values
// and performs the actual removal from its delegate.
package policy

// Policy tracks the keys a bounded decorator has admitted and picks the
// eviction victim when the bound is exceeded.
//
// Concurrency: implementations are not safe for concurrent use; the
// decorator calls them under its own lock.
//
// Semantics:
//   - OnGet is a touch (e.g., promote to MRU). It is called for hits and
//     misses alike; touching an untracked key must be a no-op.
//   - OnPut records an admission. If the tracked set now exceeds the
//     capacity, it returns the key the decorator must remove and stops
//     tracking it.
//   - Reset forgets every key.
type Policy[K comparable] interface {
	OnGet(k K)
	OnPut(k K) (victim K, evict bool)
	Reset()
	// Len returns the number of tracked positions. For policies that
	// allow duplicates (FIFO) this may exceed the number of distinct keys.
	Len() int
	// Cap returns the configured capacity.
	Cap() int
}

// DefaultCapacity is used when a policy is built with a non-positive size.
const DefaultCapacity = 1024

// Capacity normalizes a configured size.
func Capacity(size int) int {
	if size <= 0 {
		return DefaultCapacity
	}
	return size
}
