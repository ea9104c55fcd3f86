// Command bench runs a synthetic statement workload against a cache stack
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/layercache/config"
	"github.com/IvanBrykalov/layercache/key"
	pmet "github.com/IvanBrykalov/layercache/metrics/prom"
	"github.com/IvanBrykalov/layercache/registry"
)

const benchNS = "bench.Mapper"

func main() {
	// ---- Flags ----
	var (
		cfgPath   = flag.String("config", "", "YAML config; when set, the cache flags below are ignored")
		capacity  = flag.Int("cap", 100_000, "cache capacity (entries)")
		eviction  = flag.String("eviction", "lru", "eviction policy: lru | fifo | 2q")
		reference = flag.String("reference", "strong", "reference tier: strong | soft | weak")
		blocking  = flag.Bool("blocking", true, "single-flight loads")
		readWrite = flag.Bool("rw", false, "serialize values (read-write cache)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		loadCost = flag.Duration("load", 0, "simulated statement latency on a miss")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			logger.Info("pprof: serving", zap.String("addr", *pprofAddr))
			logger.Warn("pprof server stopped", zap.Error(http.ListenAndServe(*pprofAddr, nil)))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("metrics: serving", zap.String("addr", *metricsAddr))
		logger.Warn("metrics server stopped", zap.Error(http.ListenAndServe(*metricsAddr, nil)))
	}()

	// ---- Build caches ----
	cfg := &config.Config{Caches: []config.Namespace{{
		Namespace: benchNS,
		Eviction:  *eviction,
		Size:      *capacity,
		Reference: *reference,
		Blocking:  *blocking,
		ReadWrite: *readWrite,
	}}}
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
	}
	if len(cfg.Caches) == 0 {
		logger.Fatal("no caches configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := registry.New(ctx, cfg, registry.Options{
		Logger:  logger,
		Metrics: pmet.ForNamespace(prometheus.DefaultRegisterer, "layercache", "bench"),
	})
	if err != nil {
		logger.Fatal("build caches", zap.Error(err))
	}
	defer func() { _ = reg.Close() }()

	ns := cfg.Caches[0].Namespace
	c, err := reg.Cache(ns)
	if err != nil {
		logger.Fatal("lookup cache", zap.Error(err))
	}

	// ---- Preload half capacity to get a realistic hit-rate ----
	size := cfg.Caches[0].Size
	if size <= 0 {
		size = 1024
	}
	pl := *preload
	if pl == 0 {
		pl = size / 2
	}
	for i := 0; i < pl; i++ {
		c.Put(statementKey(uint64(i)), "row:"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	cost := *loadCost
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	runCtx, stop := context.WithTimeout(ctx, *duration)
	defer stop()

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(w)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			for runCtx.Err() == nil {
				atomic.AddUint64(&total, 1)
				id := localZipf.Uint64()
				k := statementKey(id)
				if int(localR.Int31n(100)) >= readPctVal {
					atomic.AddUint64(&writes, 1)
					c.Put(k, "row:"+strconv.Itoa(localR.Int()))
					continue
				}

				atomic.AddUint64(&reads, 1)
				loaded := false
				_, err := reg.Load(runCtx, ns, k, func(ctx context.Context) (any, error) {
					loaded = true
					if cost > 0 {
						select {
						case <-time.After(cost):
						case <-ctx.Done():
							return nil, ctx.Err()
						}
					}
					return "row:" + strconv.FormatUint(id, 10), nil
				})
				if err != nil && runCtx.Err() == nil {
					return fmt.Errorf("load %s: %w", k, err)
				}
				if loaded {
					atomic.AddUint64(&misses, 1)
				} else {
					atomic.AddUint64(&hits, 1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("workload failed", zap.Error(err))
	}
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	n := cfg.Caches[0]
	fmt.Printf("eviction=%s reference=%s cap=%d blocking=%v rw=%v workers=%d keys=%d dur=%v seed=%d\n",
		n.EvictionOrDefault(), n.ReferenceOrDefault(), size, n.Blocking, n.ReadWrite, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("Len()=%d\n", c.Len())
}

// statementKey builds the cache key a mapper would use for "select by id".
func statementKey(id uint64) key.CacheKey {
	return key.New(benchNS + ".selectById").Page(0, 1).Update(id).MustKey()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
