// Package reactor implements the bounded-concurrency two-phase scheduler
// that drives apply: Phase A (parallel, per-item, e.g. git sync) runs
// behind a weighted semaphore; a barrier collects every outcome before
// Phase B (sequential-per-skill, parallel-across-skills materialization)
// begins.
package reactor

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Concurrency bounds for the apply scheduler.
const (
	DefaultConcurrencyLimit = 10
	MinConcurrencyLimit     = 1
	MaxConcurrencyLimit     = 100
)

// Reactor bounds how many Phase A tasks run concurrently.
type Reactor struct {
	concurrencyLimit int
}

// New validates limit against [MinConcurrencyLimit, MaxConcurrencyLimit].
func New(limit int) (*Reactor, error) {
	if limit < MinConcurrencyLimit || limit > MaxConcurrencyLimit {
		return nil, ekind.Newf(ekind.Validation, "INVALID_CONCURRENCY: concurrency must be between %d and %d, got %d",
			MinConcurrencyLimit, MaxConcurrencyLimit, limit)
	}
	return &Reactor{concurrencyLimit: limit}, nil
}

// Default constructs a Reactor at DefaultConcurrencyLimit.
func Default() *Reactor {
	r, _ := New(DefaultConcurrencyLimit)
	return r
}

// ConcurrencyLimit reports the reactor's configured bound.
func (r *Reactor) ConcurrencyLimit() int {
	return r.concurrencyLimit
}

// Outcome pairs a Phase A result with the index of its originating task,
// so order can be restored after concurrent execution reorders completion.
type Outcome[O any] struct {
	Index  int
	Result O
	Err    error
}

// RunPhaseA runs fn over tasks with at most r.concurrencyLimit concurrent
// in flight, preserving task order in the returned slice regardless of
// completion order. A per-task error is captured on its Outcome rather
// than aborting siblings; only semaphore/context setup failures return a
// top-level error.
func RunPhaseA[I any, O any](ctx context.Context, r *Reactor, tasks []I, fn func(context.Context, I) (O, error)) ([]Outcome[O], error) {
	outcomes := make([]Outcome[O], len(tasks))
	sem := semaphore.NewWeighted(int64(r.concurrencyLimit))
	g, gctx := errgroup.WithContext(ctx)

	for index, task := range tasks {
		index, task := index, task
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return ekind.Wrap(ekind.Runtime, err)
			}
			defer sem.Release(1)

			result, err := fn(gctx, task)
			outcomes[index] = Outcome[O]{Index: index, Result: result, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// RunBlocking runs operation on its own goroutine, recovering a panic
// into an error instead of crashing the process, and classifying the
// outcome as cancelled, panicked, or ok.
func RunBlocking[R any](ctx context.Context, taskName string, operation func() (R, error)) (R, error) {
	type result struct {
		value R
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				var zero R
				done <- result{value: zero, err: ekind.Newf(ekind.Runtime, "blocking task `%s` panicked: %v", taskName, recovered)}
			}
		}()
		value, err := operation()
		done <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero R
		return zero, ekind.Newf(ekind.Runtime, "blocking task `%s` cancelled: %s", taskName, ctx.Err())
	case r := <-done:
		return r.value, r.err
	}
}
