package cache

import "context"

// LoadFunc computes the value for a missing key.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Load reads k through c and falls back to fn on a miss. A loaded value is
// Put. A failed load stores nothing and deletes nothing; when c is a
// Releaser (a Blocking stack) the key's lock goes to the next waiter.
// Lookup errors are returned without calling fn.
func Load[K comparable, V any](ctx context.Context, c Cache[K, V], k K, fn LoadFunc[V]) (V, error) {
	v, ok, err := c.Get(ctx, k)
	if err != nil {
		var zero V
		return zero, err
	}
	if ok {
		return v, nil
	}
	v, err = fn(ctx)
	if err != nil {
		if r, ok := c.(Releaser[K]); ok {
			r.Release(k)
		}
		var zero V
		return zero, err
	}
	c.Put(k, v)
	return v, nil
}
