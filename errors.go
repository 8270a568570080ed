package qpool

import (
	"github.com/giantswarm/qpool/internal/corepool"
	"github.com/giantswarm/qpool/internal/sentinel"
)

// Sentinel errors for error inspection with errors.Is.
//
// These use the sentinel.Error const pattern instead of errors.New vars:
// Error is a string type implementing error, so these can be declared as
// consts, preventing reassignment, while remaining compatible with
// errors.Is through Go's default == comparison on comparable types.
const (
	// ErrPoolClosed is returned by Acquire/AcquireUnchecked/Reserve once
	// the pool has been closed via Close.
	ErrPoolClosed = corepool.ErrPoolClosed

	// ErrPoolTimedOut is returned when a context deadline elapses while
	// Acquire/AcquireUnchecked/Reserve is waiting for a permit. It is
	// never raised for an explicitly canceled context (context.Canceled
	// is returned unwrapped in that case) — only for a deadline.
	ErrPoolTimedOut = sentinel.Error("qpool: timed out waiting for a resource")
)

// ResourceError wraps an error returned by a Manager's Create call. Use
// errors.As to recover the original error:
//
//	var rerr *qpool.ResourceError
//	if errors.As(err, &rerr) {
//		// rerr.Err is the manager's error
//	}
type ResourceError = corepool.ResourceError
