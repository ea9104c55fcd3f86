package twoq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newQ(size, in, ghost int) *twoQ[string] {
	return NewWithQueues[string](size, in, ghost).(*twoQ[string])
}

// A first-time key is admitted into A1in (no eviction).
func TestTwoQ_AddGoesToA1in(t *testing.T) {
	t.Parallel()

	q := newQ(4, 2, 4)
	_, evict := q.OnPut("a")

	require.False(t, evict)
	require.True(t, q.in.Contains("a"))
	require.False(t, q.am.Contains("a"))
}

// A touch on an A1in key promotes it into Am.
func TestTwoQ_GetPromotesToAm(t *testing.T) {
	t.Parallel()

	q := newQ(4, 2, 4)
	q.OnPut("a")
	q.OnGet("a")

	require.False(t, q.in.Contains("a"))
	require.True(t, q.am.Contains("a"))
}

// When over capacity with A1in over its share, the A1in tail is evicted
// and remembered as a ghost.
func TestTwoQ_OverflowEvictsA1inTail(t *testing.T) {
	t.Parallel()

	q := newQ(2, 1, 4)
	q.OnPut("a")
	q.OnPut("b")

	victim, evict := q.OnPut("c")
	require.True(t, evict)
	require.Equal(t, "a", victim)
	require.True(t, q.ghost.Contains("a"))
	require.Equal(t, 2, q.Len())
}

// A ghost hit bypasses A1in.
func TestTwoQ_GhostReadmitsToAm(t *testing.T) {
	t.Parallel()

	q := newQ(2, 1, 4)
	q.OnPut("a")
	q.OnPut("b")
	q.OnPut("c") // evicts a -> ghost

	q.OnPut("a")
	require.True(t, q.am.Contains("a"))
	require.False(t, q.ghost.Contains("a"))
}

// A one-pass scan cannot flush keys that were touched twice.
func TestTwoQ_ScanResistance(t *testing.T) {
	t.Parallel()

	q := newQ(4, 1, 8)
	q.OnPut("hot")
	q.OnGet("hot") // promoted to Am

	for _, k := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		victim, evict := q.OnPut(k)
		if evict {
			require.NotEqual(t, "hot", victim)
		}
	}
	require.True(t, q.am.Contains("hot"))
}

// The ghost list never exceeds its capacity.
func TestTwoQ_GhostBounded(t *testing.T) {
	t.Parallel()

	q := newQ(1, 1, 2)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		q.OnPut(k)
	}
	require.LessOrEqual(t, q.ghost.Len(), 2)
	require.Equal(t, 1, q.Len())
}

func TestTwoQ_DefaultsAndReset(t *testing.T) {
	t.Parallel()

	q := New[string](8).(*twoQ[string])
	require.Equal(t, 8, q.Cap())
	require.Equal(t, 2, q.capIn)
	require.Equal(t, 4, q.capGhost)

	q.OnPut("a")
	q.Reset()
	require.Zero(t, q.Len())
	require.Zero(t, q.ghost.Len())
}
