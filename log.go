package qpool

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger used by qpool, stored as an atomic
// pointer to allow safe concurrent reads and writes. A nil value means no
// custom logger has been set; Logger() falls back to a cached default
// derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// qpool component attribute) so it is not re-created on every Logger()
// call. Calling SetLogger(nil) clears this cache, allowing the next
// Logger() call to pick up a changed slog.Default().
var defaultLogger atomic.Pointer[slog.Logger]

// Logger returns the current package-level logger. If no custom logger has
// been set via SetLogger, it returns a cached logger derived from
// slog.Default() with the qpool component attribute. Safe to call from
// multiple goroutines.
//
// New captures the result of Logger() at construction time; a pool does
// not pick up a later SetLogger call unless WithLogger is used to give it
// its own logger explicitly.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "qpool")
}

// SetLogger replaces the package-level logger used by qpool for pools
// constructed after this call (pools capture their logger at New time; see
// WithLogger to override a single pool's logger instead).
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next Logger() call and cached.
// SetLogger is safe to call concurrently with other qpool operations.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	defaultLogger.Store(nil)
}
