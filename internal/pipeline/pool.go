package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"resumatch/internal/errors"
)

// Pool bounds how many extraction and inference stages run at once. A slot
// is held until the work itself returns, even when the waiting caller gave
// up on its context, so the bound holds for abandoned work too.
type Pool struct {
	sem       *semaphore.Weighted
	size      int64
	inFlight  atomic.Int64
	completed atomic.Int64
	abandoned atomic.Int64
}

// PoolStats is a point-in-time view of pool usage.
type PoolStats struct {
	Size      int64 `json:"size"`
	InFlight  int64 `json:"in_flight"`
	Completed int64 `json:"completed"`
	Abandoned int64 `json:"abandoned"`
}

// NewPool creates a pool with the given number of slots. Zero or negative
// means one slot per GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(workers)),
		size: int64(workers),
	}
}

// Do runs fn on a pool slot and waits for it or for ctx, whichever ends
// first. A panic in fn is returned as an internal error.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.inFlight.Add(1)

	done := make(chan error, 1)
	go func() {
		defer func() {
			p.inFlight.Add(-1)
			p.completed.Add(1)
			p.sem.Release(1)
		}()
		defer func() {
			if r := recover(); r != nil {
				done <- errors.NewInternalError(errors.ErrCodePipelineFailed,
					"pipeline stage failed", fmt.Errorf("panic: %v", r))
			}
		}()
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		p.abandoned.Add(1)
		return ctx.Err()
	}
}

// Stats reports current pool usage.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:      p.size,
		InFlight:  p.inFlight.Load(),
		Completed: p.completed.Load(),
		Abandoned: p.abandoned.Load(),
	}
}

// Run is Do for stages that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
