package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTable_AcquireRelease(t *testing.T) {
	t.Parallel()

	var tb Table[string]
	require.NoError(t, tb.Acquire(context.Background(), "k", 0))
	require.True(t, tb.Held("k"))
	require.Equal(t, 1, tb.Len())

	require.True(t, tb.Release("k"))
	require.False(t, tb.Held("k"))
	require.Zero(t, tb.Len(), "entry must be dropped once unused")
}

// Releasing a key that is not held is a silent no-op.
func TestTable_ReleaseFreeIsNoop(t *testing.T) {
	t.Parallel()

	var tb Table[int]
	require.False(t, tb.Release(1))

	require.NoError(t, tb.Acquire(context.Background(), 1, 0))
	require.True(t, tb.Release(1))
	require.False(t, tb.Release(1))
	require.Zero(t, tb.Len())
}

func TestTable_Timeout(t *testing.T) {
	t.Parallel()

	var tb Table[string]
	require.NoError(t, tb.Acquire(context.Background(), "k", 0))

	start := time.Now()
	err := tb.Acquire(context.Background(), "k", 30*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), time.Second)

	// The failed waiter leaves nothing behind; the holder still owns the lock.
	require.True(t, tb.Held("k"))
	require.True(t, tb.Release("k"))
	require.Zero(t, tb.Len())
}

func TestTable_ContextCancel(t *testing.T) {
	t.Parallel()

	var tb Table[string]
	require.NoError(t, tb.Acquire(context.Background(), "k", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tb.Acquire(ctx, "k", 0) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	err := <-done
	require.True(t, errors.Is(err, context.Canceled))

	require.True(t, tb.Release("k"))
	require.Zero(t, tb.Len())
}

func TestTable_TryAcquire(t *testing.T) {
	t.Parallel()

	var tb Table[string]
	require.True(t, tb.TryAcquire("a"))
	require.False(t, tb.TryAcquire("a"))
	require.True(t, tb.TryAcquire("b"), "different keys never block each other")

	tb.Release("a")
	tb.Release("b")
	require.Zero(t, tb.Len())
}

// Waiters are handed the lock one at a time.
func TestTable_MutualExclusion(t *testing.T) {
	t.Parallel()

	var (
		tb      Table[string]
		inside  atomic.Int32
		maxSeen atomic.Int32
	)
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			if err := tb.Acquire(context.Background(), "hot", time.Second); err != nil {
				return err
			}
			n := inside.Add(1)
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			tb.Release("hot")
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), maxSeen.Load())
	require.Zero(t, tb.Len())
}

// Churning acquire/release on a small key set must not lose entries
// to the delete-vs-insert race.
func TestTable_ChurnNoLeak(t *testing.T) {
	t.Parallel()

	var tb Table[int]
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				k := (i + id) % 4
				if err := tb.Acquire(context.Background(), k, 0); err != nil {
					t.Errorf("acquire: %v", err)
					return
				}
				tb.Release(k)
			}
		}(w)
	}
	wg.Wait()
	require.Zero(t, tb.Len())
}
