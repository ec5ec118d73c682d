// Package worker provides bounded fan-out for repeated store commands.
//
// Pool runs a fixed number of jobs with at most NumWorkers in flight and
// stops handing out jobs at the first error.
//
// # Basic Usage
//
//	pool := worker.NewPool(4) // 4 workers
//	err := pool.Run(ctx, 999, func(ctx context.Context, i int) error {
//	    _, err := st.MGet(ctx, keys...)
//	    return err
//	})
//
// # Cancellation
//
// Run returns once every started job has returned. Cancelling ctx stops
// new jobs from starting; jobs see the cancellation through their ctx.
package worker
