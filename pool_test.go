package qpool_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/qpool"
	"golang.org/x/sync/errgroup"
)

// counter is a trivial mutable resource: an int a manager hands out and
// callers mutate in place. It satisfies io.Closer so Close-path tests can
// observe destruction.
type counter struct {
	value  int
	closed bool
}

func (c *counter) Close() error {
	c.closed = true
	return nil
}

func newCounterManager() (qpool.Manager[*counter], *int32) {
	var created int32
	create := func(context.Context) (*counter, error) {
		created++
		return &counter{}, nil
	}
	return qpool.NewManager(create, nil), &created
}

// TestCounterAggregation runs 8 goroutines each performing 16
// acquire -> increment -> release cycles against a pool of size 4;
// draining the pool afterwards must sum to 128.
func TestCounterAggregation(t *testing.T) {
	t.Parallel()

	mgr := qpool.NewManager(func(context.Context) (*counter, error) {
		return &counter{}, nil
	}, nil)
	pool, err := qpool.New[*counter](mgr, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	ctx := context.Background()
	g, gCtx := errgroup.WithContext(ctx)
	for worker := 0; worker < 8; worker++ {
		g.Go(func() error {
			for i := 0; i < 16; i++ {
				h, err := pool.Acquire(gCtx)
				if err != nil {
					return err
				}
				c := h.Get()
				c.value++
				err2 := h.Close()
				if err2 != nil {
					return err2
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("worker group: %v", err)
	}

	sum := 0
	for i := 0; i < 4; i++ {
		h, err := pool.Acquire(ctx)
		if err != nil {
			t.Fatalf("drain Acquire %d: %v", i, err)
		}
		sum += h.Take().value
		h.Close()
	}

	if sum != 128 {
		t.Fatalf("sum = %d, want 128", sum)
	}
}

// TestValidationEviction checks that a resource failing Validate on reuse
// is discarded and replaced with a freshly created one.
func TestValidationEviction(t *testing.T) {
	t.Parallel()

	var created int
	mgr := qpool.NewManager(
		func(context.Context) (*counter, error) {
			created++
			return &counter{}, nil
		},
		func(_ context.Context, c *counter) bool {
			return c.value >= 0
		},
	)
	pool, err := qpool.New[*counter](mgr, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	ctx := context.Background()
	h, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h.Get().value = -1
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if h2.Get().value != 0 {
		t.Fatalf("expected a freshly created resource with value 0, got %d", h2.Get().value)
	}
	if created != 2 {
		t.Fatalf("manager Create called %d times, want 2", created)
	}
	h2.Close()
}

// TestCancellationSafety exercises a size-1 pool: one holder, a second
// acquirer that times out, a third that succeeds once the holder
// releases, and the size returning to 1 afterwards.
func TestCancellationSafety(t *testing.T) {
	t.Parallel()

	mgr := qpool.NewManager(func(context.Context) (*counter, error) {
		return &counter{}, nil
	}, nil)
	pool, err := qpool.New[*counter](mgr, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	holder, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}

	bCtx, bCancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer bCancel()
	if _, err := pool.Acquire(bCtx); !errors.Is(err, qpool.ErrPoolTimedOut) {
		t.Fatalf("B Acquire = %v, want ErrPoolTimedOut", err)
	}

	var wg sync.WaitGroup
	var cHandle *qpool.Pooled[*counter]
	var cErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		cCtx, cCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cCancel()
		cHandle, cErr = pool.Acquire(cCtx)
	}()

	time.Sleep(5 * time.Millisecond) // let C register as a waiter
	if err := holder.Close(); err != nil {
		t.Fatalf("holder Close: %v", err)
	}
	wg.Wait()

	if cErr != nil {
		t.Fatalf("C Acquire: %v", cErr)
	}
	if err := cHandle.Close(); err != nil {
		t.Fatalf("C Close: %v", err)
	}

	if got := pool.Size(); got != 1 {
		t.Fatalf("Size() = %d after C releases, want 1", got)
	}
}

// TestReservePreWarm checks that Reserve creates n resources up front and
// leaves them sitting in the idle queue.
func TestReservePreWarm(t *testing.T) {
	t.Parallel()

	mgr, created := newCounterManager()
	pool, err := qpool.New[*counter](mgr, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	if err := pool.Reserve(context.Background(), 4); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if *created != 4 {
		t.Fatalf("Create called %d times, want 4", *created)
	}
	if got := pool.Size(); got != 4 {
		t.Fatalf("Size() = %d, want 4", got)
	}
}

// TestTakeDoesNotRefill checks that a resource drained via Take never
// returns to the idle queue and a subsequent Acquire creates a
// replacement.
func TestTakeDoesNotRefill(t *testing.T) {
	t.Parallel()

	mgr, created := newCounterManager()
	pool, err := qpool.New[*counter](mgr, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	ctx := context.Background()
	h, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	raw := h.Take()
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if raw.closed {
		t.Fatal("Take must not close the resource; the caller owns it now")
	}

	h2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if *created != 2 {
		t.Fatalf("Create called %d times, want 2 (Take forces a fresh resource)", *created)
	}
	h2.Close()
}

// TestManagerErrorPropagation checks that a Create failure surfaces as a
// ResourceError and restores the permit so capacity is not leaked.
func TestManagerErrorPropagation(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection refused")
	calls := 0
	mgr := qpool.NewManager(func(context.Context) (*counter, error) {
		calls++
		if calls == 2 {
			return nil, wantErr
		}
		return &counter{}, nil
	}, nil)
	pool, err := qpool.New[*counter](mgr, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	ctx := context.Background()
	h, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	h.Take()
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = pool.Acquire(ctx)
	var rerr *qpool.ResourceError
	if !errors.As(err, &rerr) || !errors.Is(rerr.Err, wantErr) {
		t.Fatalf("second Acquire error = %v, want a *ResourceError wrapping %v", err, wantErr)
	}

	if got := pool.Size(); got != 1 {
		t.Fatalf("Size() = %d after failed Create, want 1", got)
	}
}

// TestMaxSizeOneSerializesAcquires checks that a pool with maxSize 1
// gives strict mutual exclusion over a shared counter.
func TestMaxSizeOneSerializesAcquires(t *testing.T) {
	t.Parallel()

	mgr := qpool.NewManager(func(context.Context) (*counter, error) {
		return &counter{}, nil
	}, nil)
	pool, err := qpool.New[*counter](mgr, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer pool.Close(context.Background())

	var unsafeCounter int
	ctx := context.Background()
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			h, err := pool.Acquire(gCtx)
			if err != nil {
				return err
			}
			defer h.Close()
			unsafeCounter++ // racy if two goroutines ever hold the handle concurrently
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("worker group: %v", err)
	}

	if unsafeCounter != 20 {
		t.Fatalf("unsafeCounter = %d, want 20", unsafeCounter)
	}
}

func TestNewRejectsInvalidMaxSize(t *testing.T) {
	t.Parallel()

	mgr := qpool.NewManager(func(context.Context) (*counter, error) {
		return &counter{}, nil
	}, nil)

	if _, err := qpool.New[*counter](mgr, 0); err == nil {
		t.Fatal("expected New with maxSize 0 to return an error")
	}
}

func TestClosePoolDestroysIdleResourcesAndRejectsAcquire(t *testing.T) {
	t.Parallel()

	mgr, _ := newCounterManager()
	pool, err := qpool.New[*counter](mgr, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pool.Reserve(context.Background(), 2); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := pool.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, qpool.ErrPoolClosed) {
		t.Fatalf("Acquire after Close = %v, want ErrPoolClosed", err)
	}

	// Closing twice must not panic or double-destroy.
	if err := pool.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
