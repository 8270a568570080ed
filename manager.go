package qpool

import "github.com/giantswarm/qpool/internal/corepool"

// Manager is the caller-supplied factory and validator for resources of
// type R. A Manager is shared immutably for the pool's lifetime; the pool
// never calls it except from Acquire/AcquireUnchecked/Reserve and
// Pooled.IsValid, but it may
// call Create and Validate concurrently from different goroutines —
// implementations must be safe for that.
type Manager[R any] = corepool.Manager[R]

// CreateFunc is the function-shaped half of a Manager's Create method.
type CreateFunc[R any] = corepool.CreateFunc[R]

// ValidateFunc is the function-shaped half of a Manager's Validate method.
type ValidateFunc[R any] = corepool.ValidateFunc[R]

// NewManager adapts a create function and an optional validate function
// into a Manager, the way http.HandlerFunc adapts a function into an
// http.Handler. A nil validate makes every idle resource considered
// valid: Create's output is always assumed valid, since validate is only
// ever consulted before reuse of an idle resource, never right after
// creation.
func NewManager[R any](create CreateFunc[R], validate ValidateFunc[R]) Manager[R] {
	return corepool.NewManager(create, validate)
}
