// Package keylock provides advisory per-key locks over a dynamic key set.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Acquire when the wait budget elapses.
var ErrTimeout = errors.New("keylock: timeout")

// Table hands out one lock per key. Entries are created lazily and dropped
// once nobody holds or waits on them.
//
// Concurrency notes:
//   - A lock is a 1-slot channel: a token in the slot means "held".
//     Acquire sends, Release drains. Holders are not tracked, so Release
//     by any goroutine frees the key, and Release of a free key is a no-op.
//   - Every holder and waiter owns one reference on the entry. The entry is
//     deleted from the map when the count drops to zero; an Acquire that
//     races with the deletion sees the dead flag and retries on a fresh entry.
//   - A cancelled or timed-out Acquire either owns the token or has dropped
//     its reference before returning; it never leaves the entry half-held.
type Table[K comparable] struct {
	m sync.Map // K -> *entry
}

type entry struct {
	mu   sync.Mutex
	refs int  // holders + waiters
	dead bool // removed from the table; do not reuse
	slot chan struct{}
}

// Acquire blocks until the lock for k is held, ctx is done, or timeout
// elapses (timeout <= 0 waits on ctx only). It returns ErrTimeout or
// ctx.Err() on failure.
func (t *Table[K]) Acquire(ctx context.Context, k K, timeout time.Duration) error {
	e := t.ref(k)

	// Fast path: free lock.
	select {
	case e.slot <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case e.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.unref(k, e)
		return ctx.Err()
	case <-expired:
		t.unref(k, e)
		return ErrTimeout
	}
}

// TryAcquire takes the lock for k only if it is free.
func (t *Table[K]) TryAcquire(k K) bool {
	e := t.ref(k)
	select {
	case e.slot <- struct{}{}:
		return true
	default:
		t.unref(k, e)
		return false
	}
}

// Release frees the lock for k. It reports whether a held lock was released;
// releasing a free or unknown key does nothing.
func (t *Table[K]) Release(k K) bool {
	v, ok := t.m.Load(k)
	if !ok {
		return false
	}
	e := v.(*entry)
	select {
	case <-e.slot:
	default:
		return false
	}
	t.unref(k, e)
	return true
}

// Held reports whether the lock for k is currently held.
func (t *Table[K]) Held(k K) bool {
	v, ok := t.m.Load(k)
	if !ok {
		return false
	}
	return len(v.(*entry).slot) == 1
}

// Len returns the number of live entries (held or awaited keys).
func (t *Table[K]) Len() int {
	n := 0
	t.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ref returns a live entry for k with one reference taken on behalf of the caller.
func (t *Table[K]) ref(k K) *entry {
	for {
		v, ok := t.m.Load(k)
		if !ok {
			v, _ = t.m.LoadOrStore(k, &entry{slot: make(chan struct{}, 1)})
		}
		e := v.(*entry)

		e.mu.Lock()
		if e.dead {
			// Lost the race with the last unref; the map slot is being
			// vacated, so try again.
			e.mu.Unlock()
			continue
		}
		e.refs++
		e.mu.Unlock()
		return e
	}
}

// unref drops one reference and removes the entry when it was the last one.
func (t *Table[K]) unref(k K, e *entry) {
	e.mu.Lock()
	e.refs--
	if e.refs <= 0 {
		e.dead = true
		t.m.CompareAndDelete(k, e)
	}
	e.mu.Unlock()
}
