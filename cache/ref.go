package cache

import (
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// Ref is the reclaimable handle a Soft or Weak cache stores in its delegate
// in place of the value. It keeps the key strongly so a reclaimed entry can
// still be identified, and reaches the boxed value through a weak pointer.
// A Soft ref also pins the box strongly until memory pressure demotes it.
type Ref[K comparable, V any] struct {
	key K
	id  uint64

	hard      atomic.Pointer[V] // nil for Weak refs and demoted Soft refs
	weak      weak.Pointer[V]
	reclaimed atomic.Bool
}

// notice is posted to a reclaimQueue when a boxed value is collected or
// explicitly reclaimed. The id tells a stale handle from the current one.
type notice[K comparable] struct {
	key K
	id  uint64
}

// reclaimQueue collects notices from runtime cleanups, which run on their
// own goroutine, until the owning cache drains them.
type reclaimQueue[K comparable] struct {
	mu sync.Mutex
	ns []notice[K]
}

func (q *reclaimQueue[K]) push(n notice[K]) {
	q.mu.Lock()
	q.ns = append(q.ns, n)
	q.mu.Unlock()
}

func (q *reclaimQueue[K]) pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ns) > 0
}

func (q *reclaimQueue[K]) drain() []notice[K] {
	q.mu.Lock()
	ns := q.ns
	q.ns = nil
	q.mu.Unlock()
	return ns
}

// newRef boxes v and registers a cleanup that reports the box's collection
// to q. When strong is set the box is pinned until demote.
func newRef[K comparable, V any](k K, id uint64, v V, strong bool, q *reclaimQueue[K]) *Ref[K, V] {
	box := new(V)
	*box = v
	r := &Ref[K, V]{key: k, id: id, weak: weak.Make(box)}
	if strong {
		r.hard.Store(box)
	}
	// The cleanup argument must not reach box, or box would never be collected.
	runtime.AddCleanup(box, func(n notice[K]) { q.push(n) }, notice[K]{key: k, id: id})
	return r
}

// Key returns the key the handle was stored under.
func (r *Ref[K, V]) Key() K { return r.key }

// Value resolves the handle. It reports false once the value was reclaimed.
func (r *Ref[K, V]) Value() (V, bool) {
	if p := r.resolve(); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Reclaimed reports whether the value is known to be gone.
func (r *Ref[K, V]) Reclaimed() bool {
	if r.reclaimed.Load() {
		return true
	}
	return r.resolve() == nil
}

// resolve returns a strong pointer to the box, or nil once it is gone.
func (r *Ref[K, V]) resolve() *V {
	if r.reclaimed.Load() {
		return nil
	}
	if p := r.hard.Load(); p != nil {
		return p
	}
	if p := r.weak.Value(); p != nil {
		return p
	}
	r.reclaimed.Store(true)
	return nil
}

// demote drops the strong pin; the box stays alive only while something
// else (the strong ring, a caller) holds it.
func (r *Ref[K, V]) demote() bool {
	return r.hard.Swap(nil) != nil
}

// reclaim marks the value gone regardless of reachability.
func (r *Ref[K, V]) reclaim() {
	r.reclaimed.Store(true)
	r.hard.Store(nil)
}
