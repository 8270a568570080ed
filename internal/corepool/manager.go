package corepool

import "context"

// Manager is the caller-supplied factory and validator for pooled
// resources of type R. A Manager is shared immutably for the pool's
// lifetime and may be called concurrently from different goroutines;
// implementations are responsible for their own thread safety.
type Manager[R any] interface {
	// Create produces a fresh resource. It may block/suspend on ctx.
	Create(ctx context.Context) (R, error)

	// Validate reports whether r is still fit for reuse. It is consulted
	// only before handing out an idle resource, never immediately after
	// Create — a freshly created resource is assumed valid.
	Validate(ctx context.Context, r R) bool
}

// CreateFunc is the function-shaped half of a Manager's Create method.
type CreateFunc[R any] func(ctx context.Context) (R, error)

// ValidateFunc is the function-shaped half of a Manager's Validate method.
type ValidateFunc[R any] func(ctx context.Context, r R) bool

// funcManager adapts a pair of functions into a Manager, the way
// http.HandlerFunc adapts a function into an http.Handler.
type funcManager[R any] struct {
	create   CreateFunc[R]
	validate ValidateFunc[R]
}

// NewManager builds a Manager from a create function and an optional
// validate function. A nil validate makes every idle resource considered
// valid.
func NewManager[R any](create CreateFunc[R], validate ValidateFunc[R]) Manager[R] {
	if validate == nil {
		validate = func(context.Context, R) bool { return true }
	}
	return &funcManager[R]{create: create, validate: validate}
}

func (m *funcManager[R]) Create(ctx context.Context) (R, error) {
	return m.create(ctx)
}

func (m *funcManager[R]) Validate(ctx context.Context, r R) bool {
	return m.validate(ctx, r)
}
