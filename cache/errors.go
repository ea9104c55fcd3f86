package cache

import "errors"

var (
	// ErrLockTimeout is returned by a Blocking Get that could not acquire the
	// key's lock within the configured timeout. It is a contention failure,
	// not a data error; callers may retry.
	ErrLockTimeout = errors.New("cache: lock not acquired")

	// ErrLockInterrupted is returned by a Blocking Get whose context ended
	// while waiting for the key's lock. The context error is wrapped too.
	ErrLockInterrupted = errors.New("cache: interrupted while waiting for lock")

	// ErrDecode is returned by a Serialized Get when the stored bytes cannot
	// be decoded into the value type.
	ErrDecode = errors.New("cache: decode value")
)
