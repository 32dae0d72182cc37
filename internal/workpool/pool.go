// Package workpool runs independent units of work either sequentially or on
// a bounded set of goroutines, with cooperative cancellation.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Unit is one independent piece of work. Units must not depend on each
// other's results.
type Unit func(ctx context.Context)

// Runner executes units and returns once every dispatched unit has finished.
// When ctx is cancelled no further units are dispatched, in-flight units run
// to completion, and Run returns ctx.Err().
type Runner interface {
	Run(ctx context.Context, units []Unit) error
	Workers() int
}

// New returns a Parallel runner for workers > 1, otherwise a Sequential one.
func New(workers int) Runner {
	if workers <= 1 {
		return Sequential{}
	}
	return Parallel{Size: workers}
}

// Sequential runs units one after another on the calling goroutine.
type Sequential struct{}

// Workers implements Runner.
func (Sequential) Workers() int { return 1 }

// Run implements Runner.
func (Sequential) Run(ctx context.Context, units []Unit) error {
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		u(ctx)
	}
	return ctx.Err()
}

// Parallel runs units on at most Size goroutines.
type Parallel struct {
	Size int
}

// Workers implements Runner.
func (p Parallel) Workers() int { return max(p.Size, 1) }

// Run implements Runner. The pool never grows beyond the number of units.
func (p Parallel) Run(ctx context.Context, units []Unit) error {
	if len(units) == 0 {
		return ctx.Err()
	}

	var g errgroup.Group
	g.SetLimit(min(p.Workers(), len(units)))

	for _, u := range units {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			u(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}
