package corepool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handle owns exactly one resource slot and one permit between Acquire
// and Close. The public qpool.Pooled type is a thin wrapper that adds the
// io.Closer-friendly surface callers interact with.
type Handle[R any] struct {
	pool     *Inner[R]
	resource R
	permit   Permit

	drained   atomic.Bool
	closeOnce sync.Once
}

func newHandle[R any](pool *Inner[R], r R, permit Permit) *Handle[R] {
	return &Handle[R]{pool: pool, resource: r, permit: permit}
}

// Get returns the current resource.
func (h *Handle[R]) Get() R { return h.resource }

// Set replaces the resource the handle will return to the pool on Close.
func (h *Handle[R]) Set(r R) { h.resource = r }

// IsValid forwards to the manager's Validate.
func (h *Handle[R]) IsValid(ctx context.Context) bool {
	return h.pool.manager.Validate(ctx, h.resource)
}

// Take drains the resource out of the handle: Close will release the
// permit but will not push anything to the idle queue. The caller now
// owns the resource permanently; a future Acquire creates a replacement.
func (h *Handle[R]) Take() R {
	h.drained.Store(true)
	return h.resource
}

// Close runs the handle's destruction contract exactly once: if the
// resource was not drained via Take, it is pushed back to the idle queue;
// either way the permit is released last, after the resource has already
// been made available to the next acquirer (see Inner.release).
func (h *Handle[R]) Close() {
	h.closeOnce.Do(func() {
		if h.drained.Load() {
			h.pool.destroyTaken(h.permit)
			return
		}
		h.pool.release(h.resource, h.permit)
	})
}
