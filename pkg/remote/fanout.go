package remote

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Each calls fn for every index in [0, n) with at most limit calls running at
// once. fn owns its own error handling; callers store results by index so the
// output keeps the input order. The returned error is ctx.Err() when the
// caller gave up before every call was dispatched.
func Each(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) error {
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
