package panicerr

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

// SafeContext wraps a long-running worker so that a panic surfaces as an error
// naming the worker instead of tearing down the process.
func SafeContext(name string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if r := catcher.Recovered(); r != nil {
			return fmt.Errorf("%s: %w", name, r.AsError())
		}
		return nil
	}
}

// Safe is SafeContext for workers that take no context.
func Safe(name string, fn func() error) func() error {
	wrapped := SafeContext(name, func(context.Context) error { return fn() })
	return func() error {
		return wrapped(context.Background())
	}
}
