package cache

import (
	"context"
	"math/rand"
	"runtime/debug"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/layercache/config"
)

type stringRef = *Ref[string, string]

// stacks lists decorator orderings over the same key/value types. None of
// them evicts within the test's key space.
func stacks() map[string]func() Cache[string, string] {
	const size = 1024
	return map[string]func() Cache[string, string]{
		"store": func() Cache[string, string] {
			return NewStore[string, string]("s")
		},
		"lru": func() Cache[string, string] {
			return NewLRU[string, string](NewStore[string, string]("s"), size)
		},
		"fifo": func() Cache[string, string] {
			return NewFIFO[string, string](NewStore[string, string]("s"), size)
		},
		"2q": func() Cache[string, string] {
			return NewTwoQ[string, string](NewStore[string, string]("s"), size)
		},
		"soft(lru)": func() Cache[string, string] {
			return NewSoft[string, string](NewLRU[string, stringRef](NewStore[string, stringRef]("s"), size), 8)
		},
		"lru(soft)": func() Cache[string, string] {
			return NewLRU[string, string](NewSoft[string, string](NewStore[string, stringRef]("s"), 8), size)
		},
		"weak(fifo)": func() Cache[string, string] {
			return NewWeak[string, string](NewFIFO[string, stringRef](NewStore[string, stringRef]("s"), size), 8)
		},
		"fifo(weak)": func() Cache[string, string] {
			return NewFIFO[string, string](NewWeak[string, string](NewStore[string, stringRef]("s"), 8), size)
		},
		"blocking(sync(lru(soft)))": func() Cache[string, string] {
			inner := NewLRU[string, string](NewSoft[string, string](NewStore[string, stringRef]("s"), 8), size)
			return NewBlocking[string, string](NewSynchronized[string, string](inner), time.Second)
		},
		"lru(blocking(store))": func() Cache[string, string] {
			return NewLRU[string, string](NewBlocking[string, string](NewStore[string, string]("s"), time.Second), size)
		},
		"serialized(logging(lru))": func() Cache[string, string] {
			raw := NewLRU[string, []byte](NewStore[string, []byte]("s"), size)
			return NewSerialized[string, string](NewLogging[string, []byte](raw, zap.NewNop()), nil)
		},
		"instrumented(scheduled(weak))": func() Cache[string, string] {
			w := NewWeak[string, string](NewStore[string, stringRef]("s"), 8)
			return NewInstrumented[string, string](NewScheduled[string, string](w, time.Hour, nil), newCountingMetrics())
		},
	}
}

// Any stacking returns what a plain store returns for the same sequence of
// loads within capacity and without reclamation.
func TestComposition_Transparent(t *testing.T) {
	// Weak values must not be collected mid-sequence.
	defer debug.SetGCPercent(debug.SetGCPercent(-1))

	ctx := context.Background()
	for name, mk := range stacks() {
		t.Run(name, func(t *testing.T) {
			ref := make(map[string]string)
			c := mk()
			r := rand.New(rand.NewSource(1))
			for i := 0; i < 2_000; i++ {
				k := "k" + strconv.Itoa(r.Intn(64))
				if r.Intn(4) == 0 {
					v := "v" + strconv.Itoa(i)
					c.Put(k, v)
					ref[k] = v
					continue
				}
				got, err := Load(ctx, c, k, func(context.Context) (string, error) {
					v := "l" + strconv.Itoa(i)
					ref[k] = v
					return v, nil
				})
				require.NoError(t, err)
				require.Equal(t, ref[k], got, "step %d key %s", i, k)
			}
			require.Equal(t, "s", c.ID())
		})
	}
}

// Build assembles the layers named by a namespace.
func TestBuild_Layers(t *testing.T) {
	t.Parallel()

	m := newCountingMetrics()
	s, err := Build[string, string](config.Namespace{
		Namespace: "users",
		Eviction:  config.EvictionFIFO,
		Size:      2,
		Reference: config.ReferenceSoft,
		Ring:      4,
		Blocking:  true,
		Timeout:   time.Second,
		Logging:   true,
	}, BuildOptions{Metrics: m})
	require.NoError(t, err)
	require.Equal(t, "users", s.ID())
	require.Equal(t, "users", s.Namespace().Namespace)

	_, ok := s.Cache.(*Blocking[string, string])
	require.True(t, ok, "blocking must be outermost")
	tr, ok := s.Trimmer()
	require.True(t, ok)
	require.Equal(t, "users", tr.ID())

	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		v, err := Load(ctx, Cache[string, string](s), k, func(context.Context) (string, error) { return "v" + k, nil })
		require.NoError(t, err)
		require.Equal(t, "v"+k, v)
	}
	require.Equal(t, 2, s.Len())
	require.Equal(t, 1, m.evicted(EvictCapacity))
	require.EqualValues(t, 3, m.misses.Load())
	require.Equal(t, 2, m.lastSize())

	// The handle FIFO dropped may not be collected yet.
	require.GreaterOrEqual(t, tr.Trim(0), 2)
}

// Read-write namespaces hand out independent copies.
func TestBuild_ReadWrite(t *testing.T) {
	t.Parallel()

	s, err := Build[string, []int](config.Namespace{Namespace: "rw", ReadWrite: true}, BuildOptions{})
	require.NoError(t, err)

	s.Put("k", []int{1, 2, 3})
	a, ok := get[string, []int](s, "k")
	require.True(t, ok)
	a[0] = 100

	b, ok := get[string, []int](s, "k")
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, b)

	_, ok = s.Trimmer()
	require.False(t, ok)
}

// Weak read-write stacks store reclaimable encodings.
func TestBuild_WeakReadWrite(t *testing.T) {
	t.Parallel()

	s, err := Build[string, string](config.Namespace{
		Namespace:     "weak-rw",
		Eviction:      config.Eviction2Q,
		Reference:     config.ReferenceWeak,
		ReadWrite:     true,
		FlushInterval: time.Hour,
	}, BuildOptions{Logger: zap.NewNop()})
	require.NoError(t, err)
	s.Put("k", "v")
	_, ok := s.Trimmer()
	require.False(t, ok)
}

// Bad namespaces are rejected.
func TestBuild_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Build[string, string](config.Namespace{Namespace: "x", Eviction: "random"}, BuildOptions{})
	require.ErrorIs(t, err, config.ErrInvalid)
	_, err = Build[string, string](config.Namespace{Namespace: "x", Reference: "phantom"}, BuildOptions{})
	require.ErrorIs(t, err, config.ErrInvalid)
	_, err = Build[string, string](config.Namespace{}, BuildOptions{})
	require.ErrorIs(t, err, config.ErrInvalid)
}
