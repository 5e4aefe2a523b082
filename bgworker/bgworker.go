// Package bgworker runs background work on pond worker pools.
package bgworker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-agents/envutil"
	"github.com/amp-labs/amp-agents/shutdown"
)

const defaultWorkerCount = 10

// workerPool is the shared pool, created on first use and stopped by the
// shutdown package.
var workerPool = sync.OnceValue(func() pond.Pool { //nolint:gochecknoglobals
	count := envutil.Int("BACKGROUND_WORKER_COUNT",
		envutil.Default(defaultWorkerCount)).ValueOrElse(defaultWorkerCount)

	slog.Debug("Initializing background worker pool", "count", count)

	pool := pond.NewPool(count)

	shutdown.BeforeShutdown(func() {
		slog.Debug("Stopping background worker pool")
		pool.StopAndWait()
		slog.Debug("Background worker pool stopped")
	})

	return pool
})

// Submit submits a function to the background worker pool.
// It returns a Task that can be used to wait for the function to complete.
func Submit(f func()) pond.Task { //nolint:ireturn
	return workerPool().Submit(f)
}

// Go submits a function to the background worker pool. It returns immediately.
// It returns an error if the pool is stopped.
func Go(f func()) error {
	return workerPool().Go(f)
}

// Fan calls fn for every index in [0, n) with at most workers calls in
// flight, on a pool of its own. It returns the first error. Once a call
// fails, the context handed to every call is cancelled and calls that have
// not started yet are skipped.
func Fan(ctx context.Context, workers, n int, fn func(ctx context.Context, index int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pond.NewPool(max(workers, 1))
	defer pool.StopAndWait()

	group := pool.NewGroup()

	for i := range n {
		group.SubmitErr(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := fn(ctx, i); err != nil {
				cancel()

				return err
			}

			return nil
		})
	}

	return group.Wait()
}
