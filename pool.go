// Package qpool implements a generic, asynchronous resource pool: a
// bounded, shared container that hands out reusable resources to many
// concurrent goroutines, recycles them on release, and bounds total live
// resources at a configured maximum.
//
// # Basic usage
//
//	mgr := qpool.NewManager(
//		func(ctx context.Context) (*sql.Conn, error) { return db.Conn(ctx) },
//		nil, // default Validate: always true
//	)
//	pool, err := qpool.New[*sql.Conn](mgr, 10)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close(context.Background())
//
//	h, err := pool.Acquire(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Close()
//	conn := h.Get()
//	// use conn...
//
// # Acquire semantics
//
// Acquire validates an idle resource before handing it out, discarding
// (and, if it implements io.Closer, closing) any resource that fails
// validation, then falls back to creating a new one. AcquireUnchecked
// skips validation entirely and never discards an idle resource — use it
// on hot paths where validation cost is prohibitive and staleness is
// handled some other way (e.g. a driver-level reconnect).
//
// # Shutdown
//
// Close marks the pool closed: further Acquire/Reserve calls return
// ErrPoolClosed, and every idle resource is destroyed. Outstanding
// handles keep the pool's internal state alive (Go's garbage collector,
// not a manual refcount) until they themselves are closed; a handle
// closed after Close destroys its resource instead of requeuing it.
package qpool

import (
	"context"
	"errors"

	"github.com/giantswarm/qpool/internal/corepool"
	"github.com/giantswarm/qpool/internal/sentinel"
	"golang.org/x/sync/errgroup"
)

// closeFanOutLimit bounds how many idle resources Close destroys
// concurrently, keeping teardown from opening unbounded goroutines
// against whatever cleanup a Manager's Create counterpart entails.
const closeFanOutLimit = 8

// Pool is a cheaply copyable facade over a shared pool core. Every copy
// of a Pool value refers to the same underlying resources; Clone exists
// only to make that sharing explicit at call sites that want to say so.
type Pool[R any] struct {
	inner *corepool.Inner[R]
}

// New creates a Pool bounded at maxSize resources. maxSize must be >= 1.
// manager must not be nil — that is a programmer error, not a runtime
// condition, so it panics; an invalid maxSize is much more likely to
// arrive from configuration, so it is returned as an error instead.
func New[R any](manager Manager[R], maxSize int, opts ...Option) (Pool[R], error) {
	if manager == nil {
		panic("qpool: New manager must not be nil")
	}
	if maxSize < 1 {
		return Pool[R]{}, &ConfigError{Message: sentinel.Errorf("max size must be >= 1, got %d", maxSize).Error()}
	}

	cfg := poolConfig{logger: Logger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return Pool[R]{inner: corepool.New(manager, maxSize, cfg.logger, cfg.createTimeout)}, nil
}

// Clone returns a copy of p. Since Pool only holds a pointer to its
// shared core, this is equivalent to copying p directly; it exists to
// make the intent to share explicit at call sites (e.g. handing one
// clone per goroutine to a worker pool).
func (p Pool[R]) Clone() Pool[R] { return p }

// Manager returns the pool's manager.
func (p Pool[R]) Manager() Manager[R] { return p.inner.Manager() }

// MaxSize returns the configured maximum number of live resources.
func (p Pool[R]) MaxSize() int { return p.inner.MaxSize() }

// Size returns the number of free permits: maxSize minus the number of
// currently outstanding handles. This is "currently free" capacity, not
// idle-queue length — a free permit with an empty idle queue means the
// next Acquire will call Create.
func (p Pool[R]) Size() int { return p.inner.Size() }

// Acquire obtains a handle to a resource, suspending the caller if the
// pool is at capacity until one is released or ctx is done. It validates
// any idle resource before returning it, discarding invalid ones and
// falling back to Create once the idle queue is exhausted.
//
// If ctx's deadline elapses while waiting for a permit, Acquire returns
// ErrPoolTimedOut; if ctx is canceled explicitly, it returns ctx.Err()
// unwrapped; if the pool has been closed, it returns ErrPoolClosed; if
// Create fails, it returns a *ResourceError wrapping the manager's error.
func (p Pool[R]) Acquire(ctx context.Context) (*Pooled[R], error) {
	h, err := p.inner.Acquire(ctx)
	if err != nil {
		return nil, translateAcquireErr(ctx, err)
	}
	return &Pooled[R]{h: h}, nil
}

// AcquireUnchecked is like Acquire but skips validation and never
// discards an idle resource. Use it on hot paths where the cost of
// Validate is prohibitive.
func (p Pool[R]) AcquireUnchecked(ctx context.Context) (*Pooled[R], error) {
	h, err := p.inner.AcquireUnchecked(ctx)
	if err != nil {
		return nil, translateAcquireErr(ctx, err)
	}
	return &Pooled[R]{h: h}, nil
}

// Reserve pre-warms the pool by acquiring n unchecked handles in
// sequence, holding each one until all n are acquired, and then releasing
// them together, so that by the time
// Reserve returns at least n resources have been created and are sitting
// in the idle queue (modulo concurrent Acquire calls draining them in
// the meantime). n must be between 1 and MaxSize inclusive.
func (p Pool[R]) Reserve(ctx context.Context, n int) error {
	if n < 1 || n > p.inner.MaxSize() {
		return &ConfigError{Message: sentinel.Errorf("reserve count must be between 1 and %d, got %d", p.inner.MaxSize(), n).Error()}
	}
	if err := p.inner.Reserve(ctx, n); err != nil {
		return translateAcquireErr(ctx, err)
	}
	return nil
}

// Close marks the pool closed: further Acquire/AcquireUnchecked/Reserve
// calls return ErrPoolClosed, and every currently idle resource is
// destroyed — closed concurrently (bounded by closeFanOutLimit) via
// errgroup if it implements io.Closer. Outstanding handles released after
// Close destroy their resource instead of requeuing it. Close is safe to
// call more than once; later calls destroy nothing (Drain returns empty).
func (p Pool[R]) Close(ctx context.Context) error {
	resources := p.inner.Drain()
	if len(resources) == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(closeFanOutLimit)
	for _, r := range resources {
		g.Go(func() error {
			return p.inner.Destroy(r)
		})
	}
	return g.Wait()
}

// translateAcquireErr maps a wait failure onto the public error taxonomy:
// a context deadline becomes ErrPoolTimedOut, an explicit cancellation
// passes through as ctx.Err(), and ErrPoolClosed/*ResourceError pass
// through unchanged.
func translateAcquireErr(ctx context.Context, err error) error {
	var rerr *ResourceError
	if errors.As(err, &rerr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrPoolTimedOut
	}
	if errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	return err
}

// ConfigError reports invalid Pool construction/usage arguments (maxSize,
// Reserve's n) that are more likely to originate from runtime
// configuration than from a literal programmer mistake, and are
// therefore returned rather than panicked.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "qpool: " + e.Message }
