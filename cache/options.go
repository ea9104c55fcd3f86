package cache

import (
	"time"

	"go.uber.org/zap"
)

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

type wallClock struct{}

func (wallClock) NowUnixNano() int64 { return time.Now().UnixNano() }

// BuildOptions carries the collaborators Build wires into a stack. Zero
// values are safe:
//   - nil Logger  => zap.NewNop()
//   - nil Metrics => no Instrumented layer
//   - nil Clock   => wall time
type BuildOptions struct {
	// Logger receives hit-ratio debug lines (namespaces with logging on)
	// and encode warnings from read-write namespaces.
	Logger *zap.Logger

	// Metrics, when set, is fed lookups, sizes and eviction reasons.
	Metrics Metrics

	// Clock drives flush intervals. Nil => time.Now().
	Clock Clock
}

func (o BuildOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
