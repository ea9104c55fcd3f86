// Package registry owns the caches of a configuration: one stack per
// statement namespace, keyed by key.CacheKey, plus the memory-pressure
// monitor that trims their soft layers. Close tears everything down.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/layercache/cache"
	"github.com/IvanBrykalov/layercache/config"
	"github.com/IvanBrykalov/layercache/key"
	"github.com/IvanBrykalov/layercache/pressure"
)

// ErrUnknownNamespace is returned for namespaces that have no cache.
var ErrUnknownNamespace = errors.New("registry: unknown namespace")

// ErrClosed is returned by lookups after Close.
var ErrClosed = errors.New("registry: closed")

// Cache is the stack type every namespace gets.
type Cache = *cache.Stack[key.CacheKey, any]

// Options carries collaborators shared by all namespaces.
type Options struct {
	Logger *zap.Logger

	// Metrics returns the metrics sink for a namespace; nil means none.
	Metrics func(namespace string) cache.Metrics

	Clock cache.Clock

	// Sampler overrides the memory sampler of the pressure monitor.
	Sampler pressure.Sampler
}

// Registry maps namespaces to cache stacks.
type Registry struct {
	logger  *zap.Logger
	monitor *pressure.Monitor

	mu     sync.RWMutex
	caches map[string]Cache
	closed bool
}

// New builds a stack for every namespace in cfg and starts the pressure
// monitor when cfg enables it. The monitor stops when ctx ends or on Close.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		logger: logger,
		caches: make(map[string]Cache, len(cfg.Caches)),
	}
	for _, ns := range cfg.Caches {
		bo := cache.BuildOptions{Logger: logger.With(zap.String("namespace", ns.Namespace)), Clock: opts.Clock}
		if opts.Metrics != nil {
			bo.Metrics = opts.Metrics(ns.Namespace)
		}
		s, err := cache.Build[key.CacheKey, any](ns, bo)
		if err != nil {
			return nil, fmt.Errorf("registry: namespace %s: %w", ns.Namespace, err)
		}
		r.caches[ns.Namespace] = s
	}

	r.monitor = pressure.New(ctx, cfg.Pressure, logger, opts.Sampler)
	for _, s := range r.caches {
		if t, ok := s.Trimmer(); ok {
			r.monitor.Register(t)
		}
	}
	logger.Info("cache registry ready", zap.Int("namespaces", len(r.caches)))
	return r, nil
}

// Cache returns the stack for namespace.
func (r *Registry) Cache(namespace string) (Cache, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	c, ok := r.caches[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, namespace)
	}
	return c, nil
}

// Namespaces lists the configured namespaces in order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.caches))
	for ns := range r.caches {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Monitor exposes the pressure monitor, e.g. to force a check.
func (r *Registry) Monitor() *pressure.Monitor { return r.monitor }

// Load reads k from namespace through the statement protocol: a miss runs
// fn and stores its result, a failed fn releases the key.
func (r *Registry) Load(ctx context.Context, namespace string, k key.CacheKey, fn cache.LoadFunc[any]) (any, error) {
	c, err := r.Cache(namespace)
	if err != nil {
		return nil, err
	}
	return cache.Load[key.CacheKey, any](ctx, c, k, fn)
}

// Close stops the monitor and clears every cache. It is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	caches := r.caches
	r.caches = nil
	r.mu.Unlock()

	err := r.monitor.Close()
	for _, c := range caches {
		c.Clear()
	}
	r.logger.Info("cache registry closed", zap.Int("namespaces", len(caches)))
	return err
}
