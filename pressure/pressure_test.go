package pressure

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/IvanBrykalov/layercache/cache"
	"github.com/IvanBrykalov/layercache/config"
)

type fakeSampler struct{ used atomic.Uint64 } // percent

func (f *fakeSampler) set(p uint64) { f.used.Store(p) }

func (f *fakeSampler) sample(context.Context) (float64, error) {
	return float64(f.used.Load()), nil
}

func softCache(n int) *cache.Retaining[int, []byte] {
	c := cache.NewSoft[int, []byte](cache.NewStore[int, *cache.Ref[int, []byte]]("soft"), 0)
	for i := 0; i < n; i++ {
		c.Put(i, make([]byte, 64))
	}
	return c
}

// Below the threshold nothing is trimmed; at or above it everything is.
func TestMonitor_Check(t *testing.T) {
	t.Parallel()

	s := &fakeSampler{}
	core, logs := observer.New(zapcore.InfoLevel)
	m := New(context.Background(), nil, zap.New(core), s.sample)
	t.Cleanup(func() { _ = m.Close() })

	c := softCache(10)
	m.Register(c)

	s.set(50)
	trimmed, err := m.Check(context.Background())
	require.NoError(t, err)
	require.False(t, trimmed)
	require.Equal(t, 10, c.Pinned())

	s.set(90)
	trimmed, err = m.Check(context.Background())
	require.NoError(t, err)
	require.True(t, trimmed)
	require.Equal(t, 0, c.Pinned())

	scans, hits, demoted := m.Metrics()
	require.EqualValues(t, 2, scans)
	require.EqualValues(t, 1, hits)
	require.EqualValues(t, 10, demoted)
	require.Equal(t, 1, logs.FilterMessage("memory pressure").Len())
}

// The ticker loop trims on its own and stops on Close.
func TestMonitor_Loop(t *testing.T) {
	t.Parallel()

	s := &fakeSampler{}
	s.set(99)
	m := New(context.Background(), &config.PressureCfg{Interval: 5 * time.Millisecond, Threshold: 80}, nil, s.sample)

	c := softCache(5)
	m.Register(c)
	require.Eventually(t, func() bool { return c.Pinned() == 0 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	scans, _, _ := m.Metrics()
	time.Sleep(20 * time.Millisecond)
	after, _, _ := m.Metrics()
	require.Equal(t, scans, after, "no samples after Close")
}

// Sampling errors are returned by Check and never trim.
func TestMonitor_SampleError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := New(context.Background(), nil, nil, func(context.Context) (float64, error) { return 0, boom })
	t.Cleanup(func() { _ = m.Close() })

	c := softCache(3)
	m.Register(c)
	_, err := m.Check(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, c.Pinned())
}

// Weak caches register fine and report nothing to demote.
func TestMonitor_WeakTrimmer(t *testing.T) {
	t.Parallel()

	s := &fakeSampler{}
	s.set(100)
	m := New(context.Background(), nil, nil, s.sample)
	t.Cleanup(func() { _ = m.Close() })

	w := cache.NewWeak[int, []byte](cache.NewStore[int, *cache.Ref[int, []byte]]("weak"), 0)
	m.Register(w)
	trimmed, err := m.Check(context.Background())
	require.NoError(t, err)
	require.True(t, trimmed)
	_, _, demoted := m.Metrics()
	require.Zero(t, demoted)
}

// The default sampler reads a plausible percentage from the host.
func TestSystemMemory(t *testing.T) {
	t.Parallel()

	used, err := SystemMemory(context.Background())
	if err != nil {
		t.Skipf("memory stats unavailable: %v", err)
	}
	require.GreaterOrEqual(t, used, 0.0)
	require.LessOrEqual(t, used, 100.0)
}
