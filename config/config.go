// Package config describes cache namespaces and the memory-pressure monitor
// in YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Eviction policy names.
const (
	EvictionLRU  = "lru"
	EvictionFIFO = "fifo"
	Eviction2Q   = "2q"
)

// Reference tier names.
const (
	ReferenceStrong = "strong"
	ReferenceSoft   = "soft"
	ReferenceWeak   = "weak"
)

// Config is the root document.
type Config struct {
	Pressure *PressureCfg `yaml:"pressure"`
	Caches   []Namespace  `yaml:"caches"`
}

// PressureCfg configures the monitor that trims soft caches when system
// memory usage crosses Threshold percent. A nil section disables it.
type PressureCfg struct {
	Interval  time.Duration `yaml:"interval"`
	Threshold float64       `yaml:"threshold"`
}

func (cfg *PressureCfg) Enabled() bool {
	return cfg != nil
}

// Namespace describes one cache stack. Empty fields take the decorator
// defaults: lru eviction, size 1024, strong references, ring 256.
type Namespace struct {
	Namespace     string        `yaml:"namespace"`
	Eviction      string        `yaml:"eviction"`
	Size          int           `yaml:"size"`
	Reference     string        `yaml:"reference"`
	Ring          int           `yaml:"ring"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	ReadWrite     bool          `yaml:"read_write"`
	Blocking      bool          `yaml:"blocking"`
	Timeout       time.Duration `yaml:"timeout"`
	Logging       bool          `yaml:"logging"`
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %s. %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every namespace and the pressure section.
func (c *Config) Validate() error {
	if c.Pressure.Enabled() {
		if c.Pressure.Threshold <= 0 || c.Pressure.Threshold > 100 {
			return fmt.Errorf("%w: pressure.threshold %v not in (0, 100]", ErrInvalid, c.Pressure.Threshold)
		}
		if c.Pressure.Interval < 0 {
			return fmt.Errorf("%w: pressure.interval is negative", ErrInvalid)
		}
	}
	seen := make(map[string]struct{}, len(c.Caches))
	for i := range c.Caches {
		ns := &c.Caches[i]
		if err := ns.Validate(); err != nil {
			return err
		}
		if _, dup := seen[ns.Namespace]; dup {
			return fmt.Errorf("%w: duplicate namespace %q", ErrInvalid, ns.Namespace)
		}
		seen[ns.Namespace] = struct{}{}
	}
	return nil
}

// Validate checks a single namespace.
func (n *Namespace) Validate() error {
	if n.Namespace == "" {
		return fmt.Errorf("%w: namespace is empty", ErrInvalid)
	}
	switch n.Eviction {
	case "", EvictionLRU, EvictionFIFO, Eviction2Q:
	default:
		return fmt.Errorf("%w: %s: unknown eviction %q", ErrInvalid, n.Namespace, n.Eviction)
	}
	switch n.Reference {
	case "", ReferenceStrong, ReferenceSoft, ReferenceWeak:
	default:
		return fmt.Errorf("%w: %s: unknown reference %q", ErrInvalid, n.Namespace, n.Reference)
	}
	if n.Size < 0 || n.Ring < 0 {
		return fmt.Errorf("%w: %s: negative size or ring", ErrInvalid, n.Namespace)
	}
	if n.FlushInterval < 0 || n.Timeout < 0 {
		return fmt.Errorf("%w: %s: negative duration", ErrInvalid, n.Namespace)
	}
	return nil
}

// EvictionOrDefault returns the eviction name, lru when unset.
func (n *Namespace) EvictionOrDefault() string {
	if n.Eviction == "" {
		return EvictionLRU
	}
	return n.Eviction
}

// ReferenceOrDefault returns the reference tier, strong when unset.
func (n *Namespace) ReferenceOrDefault() string {
	if n.Reference == "" {
		return ReferenceStrong
	}
	return n.Reference
}
