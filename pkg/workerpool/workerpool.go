package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

const DefaultSize = 4

// Pool bounds how many jobs run at once. Callers beyond the limit block until
// a slot frees up or their context ends.
type Pool struct {
	size     int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		size: int64(size),
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return int(p.size)
}

// InFlight returns the number of jobs currently holding a slot.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Do runs fn on the calling goroutine once a slot is free.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for worker: %w", err)
	}
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.sem.Release(1)
	}()

	return fn(ctx)
}

// Run is Do for jobs that return a value.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// Drain waits until every running job has finished and then keeps all slots,
// so later calls block until ctx ends.
func (p *Pool) Drain(ctx context.Context) error {
	return p.sem.Acquire(ctx, p.size)
}
