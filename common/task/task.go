package task

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// OnSuccess executes g() after f() returns no error.
func OnSuccess(f func() error, g func() error) func() error {
	return func() error {
		if err := f(); err != nil {
			return err
		}
		return g()
	}
}

// Run executes a list of tasks concurrently, returning the first error
// encountered or nil if all tasks succeed, and cancelling the rest via
// ctx as soon as one fails — used by ddp's DropIface to purge routes
// and interfaces in one bounded sweep.
func Run(ctx context.Context, tasks ...func() error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return t()
		})
	}
	return g.Wait()
}
