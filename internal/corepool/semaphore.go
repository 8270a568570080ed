// Package corepool implements the acquire/release core of qpool: a
// counting semaphore with a FIFO waiter queue, and the pool logic built on
// top of it. None of it is resource-specific; the public qpool package is
// a thin, type-parameterized facade over this package.
package corepool

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/giantswarm/qpool/internal/sentinel"
)

// Semaphore is a counting semaphore with cooperative, cancellable waiters.
// permits is the number of free slots; waiters is a FIFO queue of parked
// callers, each represented by a one-shot wakeup channel.
//
// Acquire never spins: a failed TryAcquire registers the caller in waiters
// before re-checking permits, closing the lost-wakeup race described in
// the package's design notes — a release that happens between the failed
// check and the registration is never missed, because the registration
// happens first and the re-check after registration catches it.
//
// Zero value is not usable; construct with NewSemaphore.
type Semaphore struct {
	permits atomic.Int64

	mu      sync.Mutex
	waiters list.List // element type: chan struct{}, capacity 1

	closeOnce sync.Once
	closed    chan struct{}
}

// Permit is a held unit of capacity. It must be released exactly once,
// normally via a deferred call to Release.
type Permit struct {
	sem *Semaphore
}

// NewSemaphore creates a semaphore initialized with n permits.
func NewSemaphore(n int64) *Semaphore {
	s := &Semaphore{closed: make(chan struct{})}
	s.permits.Store(n)
	return s
}

// TryAcquire attempts a non-blocking acquisition. It reports false if no
// permit is currently free; it never blocks and never registers a waiter.
func (s *Semaphore) TryAcquire() (Permit, bool) {
	for {
		n := s.permits.Load()
		if n <= 0 {
			return Permit{}, false
		}
		if s.permits.CompareAndSwap(n, n-1) {
			return Permit{sem: s}, true
		}
		// Lost the CAS race to another acquirer; retry immediately. On a
		// modern scheduler a bare retry already bounds the number of spins
		// to the number of concurrent contenders, so no explicit
		// sleep/Gosched is needed here.
	}
}

// Acquire blocks until a permit is available, the semaphore is closed, or
// ctx is done. On closure it returns ErrClosed; on context cancellation it
// returns ctx.Err().
func (s *Semaphore) Acquire(ctx context.Context) (Permit, error) {
	if err := ctx.Err(); err != nil {
		return Permit{}, err
	}

	for {
		select {
		case <-s.closed:
			return Permit{}, ErrClosed
		default:
		}

		if p, ok := s.TryAcquire(); ok {
			return p, nil
		}

		ready := make(chan struct{}, 1)
		s.mu.Lock()
		elem := s.waiters.PushBack(ready)
		s.mu.Unlock()

		// Re-check after registering: a permit released between the failed
		// TryAcquire above and this point would otherwise be missed. If we
		// got the permit ourselves but a concurrent wakeOne had already
		// earmarked this waiter for a (different) released permit, that
		// permit must not be stranded on us — forward the wake.
		if p, ok := s.TryAcquire(); ok {
			if !s.removeWaiter(elem) {
				s.wakeOne()
			}
			return p, nil
		}

		select {
		case <-ready:
			// Woken by a release; loop and retry. The permit we were
			// signalled about may already have been taken by another
			// acquirer (spurious wake), which is fine — we just retry.
			continue
		case <-s.closed:
			if !s.removeWaiter(elem) {
				// A permit was already earmarked for us by a concurrent
				// wakeOne when closure raced our cancellation; we're not
				// going to consume it, so pass it on instead of stranding
				// it on a waiter that will never read its channel again.
				s.wakeOne()
			}
			return Permit{}, ErrClosed
		case <-ctx.Done():
			if !s.removeWaiter(elem) {
				s.wakeOne()
			}
			return Permit{}, ctx.Err()
		}
	}
}

// removeWaiter removes elem from the waiter list, returning true if this
// call is the one that did so. It returns false if elem was already
// claimed by a concurrent wakeOne — meaning a permit has already been
// earmarked for this waiter via its channel — in which case the caller
// must forward that wake to the next waiter (via wakeOne) instead of
// letting it go unclaimed.
func (s *Semaphore) removeWaiter(elem *list.Element) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem.Value == nil {
		return false
	}
	elem.Value = nil
	s.waiters.Remove(elem)
	return true
}

// Release returns the permit, incrementing the available count and waking
// at most one parked waiter (FIFO). Calling Release more than once on the
// same Permit double-counts capacity and is a caller bug; Permit offers no
// protection against it, since a permit is meant to be moved exactly once.
func (p Permit) Release() {
	if p.sem == nil {
		return
	}
	p.sem.permits.Add(1)
	p.sem.wakeOne()
}

// wakeOne claims the front waiter (if any) and signals its channel. The
// claim — reading and nil-ing front.Value, then removing it from the
// list — happens in one critical section so a concurrent removeWaiter
// racing to cancel that same waiter can unambiguously tell whether it
// won or lost the race and, if it lost, forward the wake itself.
func (s *Semaphore) wakeOne() {
	s.mu.Lock()
	front := s.waiters.Front()
	if front == nil {
		s.mu.Unlock()
		return
	}
	ready, _ := front.Value.(chan struct{})
	front.Value = nil
	s.waiters.Remove(front)
	s.mu.Unlock()

	// Buffered with capacity 1 and claimed exactly once above, so this
	// send never blocks.
	ready <- struct{}{}
}

// Available reports the current number of free permits. Observability
// only: by the time the caller reads the result it may already be stale.
func (s *Semaphore) Available() int64 {
	return s.permits.Load()
}

// Close marks the semaphore closed: every parked and future Acquire call
// returns ErrClosed instead of blocking or succeeding. Idempotent.
func (s *Semaphore) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

// ErrClosed is returned by Acquire once the semaphore has been closed.
const ErrClosed = sentinel.Error("corepool: semaphore is closed")
