package sqlconn

import (
	"time"

	"github.com/getpup/pupbase/core"
)

// Config configures a Conn. Configuration is immutable after
// construction.
type Config struct {
	// Path is the filesystem path of the SQLite database file.
	Path string

	// Logger is an optional logger for observability. If nil, logging is
	// disabled (zero overhead).
	Logger core.Logger

	// BusyTimeout bounds how long a single SQLite-level busy wait may
	// block before the driver itself gives up, independent of our own
	// retry loop around BEGIN IMMEDIATE.
	BusyTimeout time.Duration

	// MaxRetries bounds how many times BEGIN IMMEDIATE is retried after
	// SQLITE_BUSY before the busy error is surfaced.
	MaxRetries int

	// BaseBackoff is the starting delay for jittered exponential backoff
	// between BEGIN IMMEDIATE retries.
	BaseBackoff time.Duration

	// MaxBackoff caps the backoff delay regardless of attempt count.
	MaxBackoff time.Duration

	// IncrementalAutoVacuum enables "PRAGMA auto_vacuum = INCREMENTAL"
	// on open. It only takes effect on a freshly created database file.
	IncrementalAutoVacuum bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:           5 * time.Second,
		MaxRetries:            10,
		BaseBackoff:           2 * time.Millisecond,
		MaxBackoff:            200 * time.Millisecond,
		IncrementalAutoVacuum: false,
		Logger:                nil,
	}
}

// Option is a functional option for configuring a Conn.
type Option func(*Config)

// WithLogger sets a logger for the connection.
func WithLogger(logger core.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithBusyTimeout overrides the SQLite-level busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *Config) { c.BusyTimeout = d }
}

// WithMaxRetries overrides the BEGIN IMMEDIATE retry budget.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithIncrementalAutoVacuum enables incremental auto-vacuum on open.
func WithIncrementalAutoVacuum(enabled bool) Option {
	return func(c *Config) { c.IncrementalAutoVacuum = enabled }
}

// NewConfig builds a configuration starting from DefaultConfig and
// applying the given options.
func NewConfig(path string, opts ...Option) Config {
	config := DefaultConfig()
	config.Path = path
	for _, opt := range opts {
		opt(&config)
	}
	return config
}
