// Package pressure watches system memory and asks soft caches to release
// their pinned values once usage crosses a threshold.
package pressure

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/layercache/cache"
	"github.com/IvanBrykalov/layercache/config"
)

const (
	defaultInterval  = time.Second
	defaultThreshold = 90.0
)

// Sampler reports the share of memory in use, in percent.
type Sampler func(ctx context.Context) (float64, error)

// SystemMemory samples host memory usage.
func SystemMemory(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("pressure: sample memory: %w", err)
	}
	return vm.UsedPercent, nil
}

// Monitor samples memory on a ticker and, while usage is at or above the
// threshold, demotes every pinned value of the registered trimmers.
type Monitor struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	interval  time.Duration
	threshold float64
	sample    Sampler
	logger    *zap.Logger

	mu       sync.Mutex
	trimmers []cache.Trimmer

	scans   atomic.Int64
	hits    atomic.Int64
	demoted atomic.Int64
}

// New returns a running monitor. A nil sampler samples system memory; a
// nil logger discards output. A disabled cfg yields a monitor whose loop is
// never started; Check still works on it.
func New(ctx context.Context, cfg *config.PressureCfg, logger *zap.Logger, sample Sampler) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sample == nil {
		sample = SystemMemory
	}
	ctx, cancel := context.WithCancel(ctx)
	m := &Monitor{
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		interval:  defaultInterval,
		threshold: defaultThreshold,
		sample:    sample,
		logger:    logger,
	}
	if !cfg.Enabled() {
		close(m.done)
		return m
	}
	if cfg.Interval > 0 {
		m.interval = cfg.Interval
	}
	if cfg.Threshold > 0 {
		m.threshold = cfg.Threshold
	}
	return m.run()
}

// Register adds t to the set trimmed under pressure.
func (m *Monitor) Register(t cache.Trimmer) {
	m.mu.Lock()
	m.trimmers = append(m.trimmers, t)
	m.mu.Unlock()
}

// Check samples once and trims if usage is at or above the threshold. It
// reports whether a trim happened.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	m.scans.Add(1)
	used, err := m.sample(ctx)
	if err != nil {
		return false, err
	}
	if used < m.threshold {
		return false, nil
	}
	m.hits.Add(1)

	m.mu.Lock()
	trimmers := append([]cache.Trimmer(nil), m.trimmers...)
	m.mu.Unlock()

	total := 0
	for _, t := range trimmers {
		n := t.Trim(0)
		total += n
		if n > 0 {
			m.logger.Debug("cache trimmed", zap.String("cache", t.ID()), zap.Int("demoted", n))
		}
	}
	m.demoted.Add(int64(total))
	m.logger.Info("memory pressure",
		zap.Float64("used_percent", used),
		zap.Float64("threshold", m.threshold),
		zap.Int("demoted", total),
	)
	return true, nil
}

// Metrics returns the number of samples, samples over the threshold, and
// values demoted so far.
func (m *Monitor) Metrics() (scans, hits, demoted int64) {
	return m.scans.Load(), m.hits.Load(), m.demoted.Load()
}

// Close stops the loop and waits for it to exit.
func (m *Monitor) Close() error {
	m.cancel()
	<-m.done
	return nil
}

func (m *Monitor) run() *Monitor {
	m.logger.Info("pressure monitor is running",
		zap.Duration("interval", m.interval),
		zap.Float64("threshold", m.threshold),
	)
	go func() {
		defer close(m.done)
		defer m.logger.Info("pressure monitor is stopped")

		tick := time.NewTicker(m.interval)
		defer tick.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-tick.C:
				if _, err := m.Check(m.ctx); err != nil {
					m.logger.Warn("pressure sample failed", zap.Error(err))
				}
			}
		}
	}()
	return m
}
