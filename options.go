package qpool

import (
	"log/slog"
	"time"
)

// poolConfig holds the secondary, optional knobs a Pool can be built
// with. The primary construction surface (manager, maxSize) is not part
// of this struct — it stays positional in New.
type poolConfig struct {
	logger        *slog.Logger
	createTimeout time.Duration
}

// Option configures a Pool during construction via New.
type Option func(*poolConfig)

// WithLogger sets the logger used by this pool for validation-eviction
// and teardown diagnostics, overriding the package-level logger returned
// by Logger() at the time New is called.
//
// Panics if l is nil — pass no WithLogger option at all to use the
// package default instead of an explicit nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("qpool: WithLogger logger must not be nil")
	}
	return func(c *poolConfig) {
		c.logger = l
	}
}

// WithCreateTimeout bounds every call the pool makes to the manager's
// Create with its own deadline of d, on top of (not instead of) whatever
// deadline the caller's Acquire/AcquireUnchecked/Reserve context already
// carries. Useful for managers whose Create can hang (a stalled dial)
// independently of how patient the caller of Acquire is willing to be.
//
// Panics if d is not positive — pass no WithCreateTimeout option at all
// to leave Create bounded only by the caller's own context.
func WithCreateTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("qpool: WithCreateTimeout duration must be positive")
	}
	return func(c *poolConfig) {
		c.createTimeout = d
	}
}
