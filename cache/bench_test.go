package cache

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/layercache/config"
)

// benchmarkMix exercises a read/write mix against a warm built stack.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
func benchmarkMix(b *testing.B, ns config.Namespace, readsPct int) {
	s, err := Build[int, int](ns, BuildOptions{})
	if err != nil {
		b.Fatal(err)
	}

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < ns.Size/2; i++ {
		s.Put(i, i)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		ctx := context.Background()
		i := 0
		for pb.Next() {
			k := i & keyMask
			if r.Intn(100) < readsPct {
				_, _, _ = s.Get(ctx, k)
			} else {
				s.Put(k, i)
			}
			i++
		}
	})
}

func lruNS(ref string) config.Namespace {
	return config.Namespace{Namespace: "bench-" + ref, Eviction: config.EvictionLRU, Size: 100_000, Reference: ref}
}

func BenchmarkLRU_Strong_90r10w(b *testing.B) { benchmarkMix(b, lruNS(config.ReferenceStrong), 90) }
func BenchmarkLRU_Strong_50r50w(b *testing.B) { benchmarkMix(b, lruNS(config.ReferenceStrong), 50) }
func BenchmarkLRU_Soft_90r10w(b *testing.B)   { benchmarkMix(b, lruNS(config.ReferenceSoft), 90) }
func BenchmarkLRU_Weak_90r10w(b *testing.B)   { benchmarkMix(b, lruNS(config.ReferenceWeak), 90) }

func BenchmarkFIFO_Strong_90r10w(b *testing.B) {
	benchmarkMix(b, config.Namespace{Namespace: "bench-fifo", Eviction: config.EvictionFIFO, Size: 100_000}, 90)
}

// BenchmarkBlocking_Hit measures the per-key lock round trip on hits.
func BenchmarkBlocking_Hit(b *testing.B) {
	c := NewBlocking[string, int](NewSynchronized[string, int](NewStore[string, int]("b")), 0)
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = "k:" + strconv.Itoa(i)
		c.Put(keys[i], i)
	}
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		i := 0
		for pb.Next() {
			_, _, _ = c.Get(ctx, keys[i&1023])
			i++
		}
	})
}
