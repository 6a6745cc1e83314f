package engine

import (
	"runtime"

	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
)

// Config holds the engine settings that come from configuration files.
type Config struct {
	SampleRate float64
	// Threads is the worker count; 0 means one per CPU.
	Threads int
	// CPUMeter enables per-module timing.
	CPUMeter bool
	// SmoothingLambda is the approach rate of smooth param writes, in 1/s.
	SmoothingLambda float64
}

// DefaultConfig returns a 48 kHz engine with one worker per CPU.
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		SmoothingLambda: param.DefaultLambda,
	}
}

func (c Config) threads() int {
	if c.Threads <= 0 {
		return max(1, runtime.NumCPU())
	}
	return c.Threads
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the default "engine" logger.
func WithLogger(l *debug.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRegistry sets the models FromJSON can instantiate.
func WithRegistry(r *plugin.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithProfiler records block timings into p.
func WithProfiler(p *debug.Profiler) Option {
	return func(e *Engine) {
		e.meter = debug.NewLoadMeter(p, "block")
	}
}
