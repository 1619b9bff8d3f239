package dispatch

import (
	"time"

	"github.com/getpup/pupbase/core"
)

// Config contains configuration for an Engine. Configuration is
// immutable after construction.
type Config struct {
	// Logger is an optional logger for observability. If nil, logging is
	// disabled (zero overhead).
	Logger core.Logger

	// MaxDepth bounds the depth of the dispatch tree. Exceeding it aborts
	// the offending event with a _handle error rather than recursing
	// forever on an accidental self-dispatch.
	MaxDepth int

	// ErrorBackoff is how long the worker loop waits before retrying
	// after an infrastructure error (as opposed to a pipeline error,
	// which is recorded on the event and does not pause the loop).
	ErrorBackoff time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxDepth:     100,
		ErrorBackoff: 50 * time.Millisecond,
	}
}

// Option is a functional option for configuring an Engine.
type Option func(*Config)

// WithLogger sets a logger for the engine.
func WithLogger(logger core.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithMaxDepth overrides the recursion depth guard.
func WithMaxDepth(depth int) Option {
	return func(c *Config) { c.MaxDepth = depth }
}

// WithErrorBackoff overrides the infra-error retry pause.
func WithErrorBackoff(d time.Duration) Option {
	return func(c *Config) { c.ErrorBackoff = d }
}

// NewConfig builds a configuration starting from DefaultConfig and
// applying the given options.
func NewConfig(opts ...Option) Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}
