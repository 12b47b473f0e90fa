package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one fanned-out item.
type Outcome[T any] struct {
	Value T
	Err   error
}

// FanOut calls fn for indexes 0..n-1 with at most concurrency calls in flight.
// Outcomes are returned in index order regardless of completion order.
//
// Without continueOnFail the first error cancels the context passed to the
// remaining calls and is returned. With continueOnFail each error is kept in
// its item's Outcome and the other items are unaffected.
func FanOut[T any](
	ctx context.Context,
	concurrency, n int,
	continueOnFail bool,
	fn func(ctx context.Context, i int) (T, error),
) ([]Outcome[T], error) {
	if concurrency < 1 {
		concurrency = 1
	}
	outcomes := make([]Outcome[T], n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, i)
			if err != nil {
				if continueOnFail && ctx.Err() == nil {
					outcomes[i].Err = err
					return nil
				}
				return fmt.Errorf("item %d: %w", i, err)
			}
			outcomes[i].Value = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
