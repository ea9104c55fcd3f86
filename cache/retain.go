package cache

import (
	"context"
	"sync"
	"weak"

	"github.com/IvanBrykalov/layercache/internal/list"
	"github.com/IvanBrykalov/layercache/internal/queue"
)

// DefaultRingSize is the number of recently read values a Soft or Weak
// cache keeps strongly reachable when no size is given.
const DefaultRingSize = 256

// Retaining stores values behind reclaimable handles (see Ref), so the
// garbage collector may take them back. A Soft cache pins every value until
// memory pressure calls Trim; a Weak cache never pins them. Both keep the
// values most recently returned by Get in a bounded strong ring.
//
// Reclaimed values are noticed through runtime cleanups and purged from the
// delegate at the start of every operation: Put, Remove, Len and Clear
// always drain the notices, Get drains them when any are pending and also
// purges a dead handle it meets. Retaining guards its own bookkeeping; it
// serializes Put/Remove/Clear with purging so a stale notice never removes a
// fresher value.
//
// The registry reaches handles weakly: a handle evicted by a layer below is
// collected together with its pinned value and then forgotten.
type Retaining[K comparable, V any] struct {
	inner Cache[K, *Ref[K, V]]
	soft  bool

	q reclaimQueue[K]

	mu       sync.Mutex
	seq      uint64
	refs     map[K]weak.Pointer[Ref[K, V]] // current handle per key
	pinned   *list.List[K]                 // Soft keys still pinned, newest first
	ring     queue.Ring[*V]                // strong ring, newest at the front
	ringSize int
	onEvict  []EvictFunc[K]
}

// NewSoft wraps inner with soft retention and a strong ring of ringSize
// (DefaultRingSize when ringSize <= 0).
func NewSoft[K comparable, V any](inner Cache[K, *Ref[K, V]], ringSize int, onEvict ...EvictFunc[K]) *Retaining[K, V] {
	return newRetaining(inner, true, ringSize, onEvict)
}

// NewWeak wraps inner with weak retention and a strong ring of ringSize
// (DefaultRingSize when ringSize <= 0).
func NewWeak[K comparable, V any](inner Cache[K, *Ref[K, V]], ringSize int, onEvict ...EvictFunc[K]) *Retaining[K, V] {
	return newRetaining(inner, false, ringSize, onEvict)
}

func newRetaining[K comparable, V any](inner Cache[K, *Ref[K, V]], soft bool, ringSize int, onEvict []EvictFunc[K]) *Retaining[K, V] {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	r := &Retaining[K, V]{
		inner:    inner,
		soft:     soft,
		refs:     make(map[K]weak.Pointer[Ref[K, V]]),
		ringSize: ringSize,
		onEvict:  onEvict,
	}
	if soft {
		r.pinned = list.New[K](0)
	}
	r.ring.Init(ringSize + 1)
	return r
}

func (r *Retaining[K, V]) ID() string { return r.inner.ID() }

// Len purges reclaimed entries first, then reports the delegate's size.
func (r *Retaining[K, V]) Len() int {
	r.mu.Lock()
	r.purgeLocked()
	r.mu.Unlock()
	return r.inner.Len()
}

// Soft reports whether values are pinned until trimmed.
func (r *Retaining[K, V]) Soft() bool { return r.soft }

// RingSize returns the capacity of the strong ring.
func (r *Retaining[K, V]) RingSize() int { return r.ringSize }

func (r *Retaining[K, V]) Put(k K, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()

	r.seq++
	ref := newRef(k, r.seq, v, r.soft, &r.q)
	r.refs[k] = weak.Make(ref)
	if r.soft {
		r.pinned.PushFront(k)
	}
	r.inner.Put(k, ref)
}

// Get purges pending notices, then resolves the stored handle. A reclaimed
// handle is purged and reported as a miss. A resolved value enters the
// strong ring.
func (r *Retaining[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	var zero V
	if r.q.pending() {
		r.mu.Lock()
		r.purgeLocked()
		r.mu.Unlock()
	}
	ref, ok, err := r.inner.Get(ctx, k)
	if err != nil || !ok || ref == nil {
		return zero, false, err
	}
	p := ref.resolve()
	if p == nil {
		r.mu.Lock()
		r.dropLocked(k, ref)
		r.mu.Unlock()
		return zero, false, nil
	}

	r.mu.Lock()
	r.ring.PushFront(p)
	for r.ring.Len() > r.ringSize {
		r.ring.PopBack()
	}
	r.mu.Unlock()
	return *p, true, nil
}

// Remove deletes k and returns its value if it was still reachable.
func (r *Retaining[K, V]) Remove(k K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked()

	r.forgetLocked(k)
	var zero V
	ref, ok := r.inner.Remove(k)
	if !ok || ref == nil {
		return zero, false
	}
	return ref.Value()
}

// Clear empties the strong ring, purges, then clears the delegate.
func (r *Retaining[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring.Clear()
	r.purgeLocked()
	clear(r.refs)
	if r.soft {
		r.pinned.Reset()
	}
	r.inner.Clear()
}

// Trim demotes pinned values, oldest first, until at most target remain
// pinned. Demoted values survive only while the strong ring or a caller
// holds them. Weak caches pin nothing and always return 0.
func (r *Retaining[K, V]) Trim(target int) int {
	if !r.soft {
		return 0
	}
	if target < 0 {
		target = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for r.pinned.Len() > target {
		k, ok := r.pinned.PopBack()
		if !ok {
			break
		}
		if ref := r.lookup(k); ref != nil && ref.demote() {
			n++
		}
	}
	return n
}

// Pinned returns how many values a Soft cache currently pins.
func (r *Retaining[K, V]) Pinned() int {
	if !r.soft {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pinned.Len()
}

// Reclaim forces the value under k to be treated as collected, exactly as
// if the garbage collector had taken it. It reports whether k was present.
func (r *Retaining[K, V]) Reclaim(k K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.lookup(k)
	if ref == nil {
		return false
	}
	ref.reclaim()
	if r.soft {
		r.pinned.Remove(k)
	}
	r.q.push(notice[K]{key: k, id: ref.id})
	return true
}

// lookup returns the live handle registered for k, or nil.
func (r *Retaining[K, V]) lookup(k K) *Ref[K, V] {
	w, ok := r.refs[k]
	if !ok {
		return nil
	}
	return w.Value()
}

// purgeLocked removes every entry whose value was reported collected.
// Notices for handles that were since replaced or removed are ignored.
func (r *Retaining[K, V]) purgeLocked() {
	for _, n := range r.q.drain() {
		if _, ok := r.refs[n.key]; !ok {
			continue
		}
		ref := r.lookup(n.key)
		if ref == nil {
			// Evicted below and collected; nothing left to remove.
			r.forgetLocked(n.key)
			continue
		}
		if ref.id != n.id {
			continue
		}
		r.dropLocked(n.key, ref)
	}
}

// dropLocked purges k if ref is still its current handle.
func (r *Retaining[K, V]) dropLocked(k K, ref *Ref[K, V]) {
	if r.lookup(k) != ref {
		return
	}
	r.forgetLocked(k)
	r.inner.Remove(k)
	notify(r.onEvict, k, EvictReclaimed)
}

func (r *Retaining[K, V]) forgetLocked(k K) {
	delete(r.refs, k)
	if r.soft {
		r.pinned.Remove(k)
	}
}

var (
	_ Cache[string, int] = (*Retaining[string, int])(nil)
	_ Trimmer            = (*Retaining[string, int])(nil)
)
