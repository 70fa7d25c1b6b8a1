// Package workerpool provides a bounded, order-preserving worker pool that can
// be shared across several phases of one job.
package workerpool

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many tasks run at once. A single Pool may be passed to any
// number of Map calls; they all draw from the same slots.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a pool with size slots. size <= 0 means runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Size returns the number of concurrent slots.
func (p *Pool) Size() int {
	return p.size
}

type options struct {
	onDone func(done, total int)
}

// Option configures a Map call.
type Option func(*options)

// WithProgress registers a callback invoked after each task finishes,
// successfully or not. It may be called from several goroutines.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.onDone = fn }
}

// Map runs fn over items on the pool and returns the results in input order.
//
// Map is a full barrier: it returns only after every started task has
// finished, and a failing task does not cancel its siblings. If any task
// failed, the results are discarded and the error of the lowest failing
// index is returned.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, i int, item T) (R, error), opts ...Option) ([]R, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	var done atomic.Int64
	var g errgroup.Group

	for i, item := range items {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			r, err := fn(ctx, i, item)
			if err != nil {
				errs[i] = err
			} else {
				results[i] = r
			}
			if o.onDone != nil {
				o.onDone(int(done.Add(1)), len(items))
			}
			return err
		})
	}

	// errs is indexed, so the reported failure does not depend on timing.
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
