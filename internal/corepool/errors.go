package corepool

import "github.com/giantswarm/qpool/internal/sentinel"

// ErrPoolClosed is returned by Acquire/AcquireUnchecked/Reserve once the
// pool has been closed. A handle closed after the pool was closed reports
// no error; its resource is destroyed instead of requeued.
const ErrPoolClosed = sentinel.Error("corepool: pool is closed")

// ResourceError wraps an error returned by a Manager's Create method.
// Unwrap exposes the underlying manager error so errors.As/errors.Is see
// through the wrapper.
type ResourceError struct {
	Err error
}

func (e *ResourceError) Error() string {
	return "corepool: resource: " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
