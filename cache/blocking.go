package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IvanBrykalov/layercache/internal/keylock"
)

// Blocking turns a cache into a single-flight loader. A Get that misses
// keeps the key's lock, so concurrent readers of that key wait until the
// missing caller Puts the loaded value (or Removes the key to give up).
// Callers must follow every miss with exactly one Put or Remove of that
// key; Load does this for you.
//
// Lock ownership is not tracked: Put and Remove release the key's lock
// whoever holds it, and releasing a free key does nothing.
type Blocking[K comparable, V any] struct {
	inner   Cache[K, V]
	timeout time.Duration
	locks   keylock.Table[K]
}

// NewBlocking wraps inner. A timeout <= 0 makes Get wait until the context
// ends.
func NewBlocking[K comparable, V any](inner Cache[K, V], timeout time.Duration) *Blocking[K, V] {
	return &Blocking[K, V]{inner: inner, timeout: timeout}
}

func (b *Blocking[K, V]) ID() string { return b.inner.ID() }
func (b *Blocking[K, V]) Len() int   { return b.inner.Len() }

// Timeout returns the lock wait budget (0 means unbounded).
func (b *Blocking[K, V]) Timeout() time.Duration { return b.timeout }

// Get acquires the lock for k, then reads the delegate. On a hit the lock is
// released; on a miss it stays held by the caller. Errors: ErrLockTimeout,
// ErrLockInterrupted (wrapping the context error), or the delegate's error,
// in which case the lock is released.
func (b *Blocking[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	var zero V
	if err := b.locks.Acquire(ctx, k, b.timeout); err != nil {
		if errors.Is(err, keylock.ErrTimeout) {
			return zero, false, fmt.Errorf("%w: cache %q key %v after %s", ErrLockTimeout, b.inner.ID(), k, b.timeout)
		}
		return zero, false, fmt.Errorf("%w: cache %q key %v: %w", ErrLockInterrupted, b.inner.ID(), k, err)
	}
	v, ok, err := b.inner.Get(ctx, k)
	if err != nil || ok {
		b.locks.Release(k)
	}
	return v, ok, err
}

// Put stores v and releases the lock for k.
func (b *Blocking[K, V]) Put(k K, v V) {
	defer b.locks.Release(k)
	b.inner.Put(k, v)
}

// Remove only releases the lock for k; it never deletes anything and
// always reports no value. Use it to abandon a load after a miss.
func (b *Blocking[K, V]) Remove(k K) (V, bool) {
	b.Release(k)
	var zero V
	return zero, false
}

// Release frees the lock for k and reports whether it was held.
func (b *Blocking[K, V]) Release(k K) bool { return b.locks.Release(k) }

// Clear clears the delegate. Held locks are left alone.
func (b *Blocking[K, V]) Clear() { b.inner.Clear() }

// Held reports whether the lock for k is currently held.
func (b *Blocking[K, V]) Held(k K) bool { return b.locks.Held(k) }

var (
	_ Cache[string, int] = (*Blocking[string, int])(nil)
	_ Releaser[string]   = (*Blocking[string, int])(nil)
)
