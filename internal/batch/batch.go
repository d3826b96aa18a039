// Package batch fans a pure analysis function out across independent
// method bodies. Per §5, "Analyses may be constructed concurrently for
// distinct method bodies" — this is the only concurrency the core
// sanctions: each MethodBody's own graph is still single-threaded, and
// nothing here schedules passes or tracks invalidation (that is the
// out-of-scope pass-pipeline driver).
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cilopt/internal/ir"
)

// RunConcurrent runs fn once per body, at most limit at a time (limit <= 0
// picks runtime.GOMAXPROCS(0)), and returns the first error any call
// produced. Every body still runs to completion: fn is handed a context
// that is cancelled once an error occurs, but cancellation is advisory —
// nothing in this core suspends or aborts mid-body (§5), so fn must
// ignore ctx.Err() rather than bail out partway through a body.
func RunConcurrent(ctx context.Context, bodies []*ir.MethodBody, limit int, fn func(context.Context, *ir.MethodBody) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for _, mb := range bodies {
		g.Go(func() error {
			return fn(gctx, mb)
		})
	}
	return g.Wait()
}
