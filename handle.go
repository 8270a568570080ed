package qpool

import (
	"context"

	"github.com/giantswarm/qpool/internal/corepool"
)

// Pooled is a scoped handle to one acquired resource. Go has no
// destructors, so Pooled implements io.Closer and callers are expected to
// `defer h.Close()` immediately after a successful Acquire — there is no
// acquire-without-scope primitive exposed.
//
// Close is idempotent and safe to call from a deferred statement even if
// the handle was already closed earlier on another path (e.g. Take
// followed by an explicit Close for symmetry).
type Pooled[R any] struct {
	h *corepool.Handle[R]
}

// Get returns the held resource.
func (p *Pooled[R]) Get() R { return p.h.Get() }

// Set replaces the resource this handle will return to the pool on
// Close. Useful for managers whose resources are mutated in place by
// reconnect/reset logic that produces a new value rather than mutating
// the existing one.
func (p *Pooled[R]) Set(r R) { p.h.Set(r) }

// IsValid forwards to the manager's Validate on the currently held
// resource.
func (p *Pooled[R]) IsValid(ctx context.Context) bool { return p.h.IsValid(ctx) }

// Take consumes the handle and returns the resource without returning it
// to the idle queue. The permit is still released when Close runs,
// preserving the capacity invariant — the resource has left the pool
// permanently, and a future Acquire will create a replacement.
//
// Take does not itself release the permit; the caller must still call
// Close (directly or via a deferred call made before Take) to do so.
func (p *Pooled[R]) Take() R { return p.h.Take() }

// Close returns the resource to the pool (unless it was drained via
// Take, in which case only the permit is released) and is safe to call
// more than once.
func (p *Pooled[R]) Close() error {
	p.h.Close()
	return nil
}
