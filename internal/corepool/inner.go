package corepool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// Inner is the shared pool core: manager, idle queue, and semaphore.
// Every Pool facade clone and every outstanding Handle holds a pointer to
// the same Inner, a shared interior that Go's garbage collector keeps
// alive on its own (there is no manual reference count) — nothing needs to be freed explicitly
// until Close is called.
type Inner[R any] struct {
	manager       Manager[R]
	idle          *idleQueue[R]
	sem           *Semaphore
	log           *slog.Logger
	maxSize       int
	createTimeout time.Duration
	closed        atomic.Bool
}

// New constructs an Inner with maxSize permits and an idle queue of the
// same capacity. maxSize must be >= 1; the caller (qpool.New) is
// responsible for validating this before calling New. createTimeout, if
// > 0, bounds every call to manager.Create with its own per-call
// deadline; 0 means Create inherits only the caller's ctx.
func New[R any](manager Manager[R], maxSize int, log *slog.Logger, createTimeout time.Duration) *Inner[R] {
	return &Inner[R]{
		manager:       manager,
		idle:          newIdleQueue[R](maxSize),
		sem:           NewSemaphore(int64(maxSize)),
		log:           log,
		maxSize:       maxSize,
		createTimeout: createTimeout,
	}
}

// create calls manager.Create, wrapping ctx in a per-call timeout when
// createTimeout is set.
func (p *Inner[R]) create(ctx context.Context) (R, error) {
	if p.createTimeout <= 0 {
		return p.manager.Create(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, p.createTimeout)
	defer cancel()
	return p.manager.Create(cctx)
}

func (p *Inner[R]) Manager() Manager[R] { return p.manager }
func (p *Inner[R]) MaxSize() int        { return p.maxSize }
func (p *Inner[R]) Size() int           { return int(p.sem.Available()) }

// Acquire pops idle resources until one validates, falling back to
// Create when the idle queue runs dry. Invalid resources are destroyed
// as they are skipped — the sole path by which the pool destroys
// resources during normal operation.
func (p *Inner[R]) Acquire(ctx context.Context) (*Handle[R], error) {
	permit, err := p.sem.Acquire(ctx)
	if err != nil {
		return nil, translateWaitErr(err)
	}

	for {
		r, ok := p.idle.pop()
		if !ok {
			break
		}
		if p.manager.Validate(ctx, r) {
			return newHandle(p, r, permit), nil
		}
		p.logEvict(r)
		p.destroy(r)
	}

	r, err := p.create(ctx)
	if err != nil {
		permit.Release()
		return nil, &ResourceError{Err: err}
	}
	return newHandle(p, r, permit), nil
}

// AcquireUnchecked never calls Validate and never discards an idle
// resource.
func (p *Inner[R]) AcquireUnchecked(ctx context.Context) (*Handle[R], error) {
	permit, err := p.sem.Acquire(ctx)
	if err != nil {
		return nil, translateWaitErr(err)
	}

	if r, ok := p.idle.pop(); ok {
		return newHandle(p, r, permit), nil
	}

	r, err := p.create(ctx)
	if err != nil {
		permit.Release()
		return nil, &ResourceError{Err: err}
	}
	return newHandle(p, r, permit), nil
}

// Reserve pre-warms the pool: it acquires n unchecked handles in
// sequence, holding each one so the idle queue stays empty and every
// acquisition is forced through Create, then releases all n at once so
// that by the time Reserve returns n freshly created resources are
// sitting in the idle queue (modulo concurrent acquisitions draining
// them in the meantime). It is deliberately sequential; a Create error
// aborts the remaining reservations after releasing everything acquired
// so far, so no permit is leaked.
func (p *Inner[R]) Reserve(ctx context.Context, n int) error {
	handles := make([]*Handle[R], 0, n)
	var acquireErr error
	for i := 0; i < n; i++ {
		h, err := p.AcquireUnchecked(ctx)
		if err != nil {
			acquireErr = err
			break
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		h.Close()
	}
	return acquireErr
}

// release pushes the resource back to the idle queue, then drops the
// permit. Pushing before releasing the permit minimizes spurious Create
// calls under release/acquire races: a waiter woken by the permit release
// finds the resource already sitting in the idle queue.
func (p *Inner[R]) release(r R, permit Permit) {
	if p.closed.Load() {
		p.destroy(r)
		permit.Release()
		return
	}
	if !p.idle.push(r) {
		// Capacity is enforced by the semaphore (outstanding handles +
		// idle resources <= maxSize); a full queue here means a permit
		// was held without a corresponding idle-queue reservation, which
		// is a pool-internal invariant violation, not caller error.
		panic("corepool: idle queue push failed despite semaphore-bounded capacity")
	}
	permit.Release()
}

// destroyTaken drops a resource that a handle's Take removed from the
// pool's custody entirely: it is neither pushed to the idle queue nor
// passed to destroy (the caller now owns it), only the permit is
// released.
func (p *Inner[R]) destroyTaken(permit Permit) {
	permit.Release()
}

// Destroy discards a resource the pool is giving up (validation failure,
// or teardown). If R implements io.Closer, Close is called; any error is
// both logged and returned, so callers that do have somewhere to report
// it (e.g. Pool.Close, fanning out over a drained queue) can, while
// callers that don't (the validation-eviction path) can ignore it.
func (p *Inner[R]) Destroy(r R) error {
	closer, ok := any(r).(io.Closer)
	if !ok {
		return nil
	}
	err := closer.Close()
	if err != nil {
		p.logWarn("failed to close discarded resource", "error", err)
	}
	return err
}

func (p *Inner[R]) destroy(r R) { _ = p.Destroy(r) }

// Drain marks the pool closed — the semaphore stops admitting new
// acquisitions (parked and future Acquire calls return ErrPoolClosed) —
// and hands back every currently idle resource for the caller to
// destroy. Outstanding handles released after Drain are destroyed
// immediately instead of requeued (see release above). Idempotent:
// calling it again returns an empty slice.
func (p *Inner[R]) Drain() []R {
	p.closed.Store(true)
	p.sem.Close()
	return p.idle.drain()
}

// Close marks the pool closed and destroys every idle resource
// sequentially. Pool.Close in the public package instead calls Drain and
// fans the destruction out with a bounded errgroup; Close exists for
// direct corepool consumers (and tests) that want the simpler call.
func (p *Inner[R]) Close() {
	for _, r := range p.Drain() {
		p.destroy(r)
	}
}

func (p *Inner[R]) logEvict(r R) {
	if p.log == nil {
		return
	}
	p.log.Debug("discarding invalid idle resource", "resource", r)
}

func (p *Inner[R]) logWarn(msg string, args ...any) {
	if p.log == nil {
		return
	}
	p.log.Warn(msg, args...)
}

// translateWaitErr maps a semaphore wait failure onto the pool's closed
// taxonomy: ErrClosed becomes ErrPoolClosed, anything else (context
// cancellation/deadline) passes through unchanged for the facade to
// translate into the public error taxonomy.
func translateWaitErr(err error) error {
	if errors.Is(err, ErrClosed) {
		return ErrPoolClosed
	}
	return err
}
