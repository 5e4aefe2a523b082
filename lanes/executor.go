package lanes

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/amp-labs/amp-agents/future"
	"github.com/amp-labs/amp-agents/hashing"
	"github.com/amp-labs/amp-agents/logger"
	"github.com/amp-labs/amp-agents/shutdown"
)

// Executor is a fixed set of lanes. Work is routed to a lane by key, so all
// work submitted under one key runs in submission order and never overlaps.
type Executor struct {
	name  string
	lanes []*lane

	hookMu     sync.Mutex
	removeHook func()
}

// New starts an executor with count lanes.
func New(count int, opts ...Option) (*Executor, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: lane count must be at least 1, got %d", ErrInvalidConfiguration, count)
	}

	o := &options{name: defaultName}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.Get()
	}

	log := o.logger.With("executor", o.name)

	e := &Executor{
		name:  o.name,
		lanes: make([]*lane, count),
	}

	for i := range count {
		e.lanes[i] = newLane(i, o.laneName(i), o.name, log, o.tracing)
	}

	for _, l := range e.lanes {
		l.start()
	}

	if o.withHook {
		e.removeHook = shutdown.BeforeShutdown(func() {
			e.Shutdown()

			if _, err := e.AwaitTermination(context.Background(), time.Minute); err != nil {
				log.Error("error waiting for lanes to drain", "error", err)
			}
		})
	}

	log.Debug("executor started", "lanes", count)

	return e, nil
}

// Submit queues fn on the lane owning key. The returned future completes
// with fn's result. After shutdown the future is already failed with
// ErrRejectedSubmission.
func Submit[T any](e *Executor, key int64, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	fut, promise := future.New[T]()

	task := newTask(key, func(ctx context.Context) error {
		value, err := fn(ctx)
		promise.Complete(value, err)

		return err
	}, promise.Failure)

	if err := e.enqueue(task); err != nil {
		promise.Failure(err)
	}

	return fut
}

// SubmitString is Submit for string keys, hashed with xxhash64.
func SubmitString[T any](e *Executor, key string, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	return Submit(e, hashing.Key64String(key), fn)
}

// Execute queues fn without a future.
func (e *Executor) Execute(key int64, fn func(ctx context.Context)) error {
	return e.enqueue(newTask(key, func(ctx context.Context) error {
		fn(ctx)

		return nil
	}, func(error) {}))
}

func (e *Executor) enqueue(task *Task) error {
	if err := e.lanes[e.LaneFor(task.key)].enqueue(task); err != nil {
		tasksRejected.WithLabelValues(e.name).Inc()

		return err
	}

	return nil
}

// LaneFor returns the index of the lane that runs work for key. The sign bit
// is masked so every int64 maps to a valid lane.
func (e *Executor) LaneFor(key int64) int {
	return int((key & math.MaxInt64) % int64(len(e.lanes)))
}

// Lanes returns the number of lanes.
func (e *Executor) Lanes() int {
	return len(e.lanes)
}

// LaneName returns the name of lane i.
func (e *Executor) LaneName(i int) string {
	return e.lanes[i].name
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return e.name
}

// Shutdown stops accepting work. Work already queued still runs.
func (e *Executor) Shutdown() {
	e.dropHook()

	for _, l := range e.lanes {
		l.requestShutdown()
	}
}

// ShutdownNow stops accepting work, cancels the context handed to running
// tasks and returns every queued task that has not started, in lane order.
// The futures of the returned tasks stay pending until Run or Discard is
// called on them.
func (e *Executor) ShutdownNow() []*Task {
	e.dropHook()

	drained := make([]*Task, 0)

	for _, l := range e.lanes {
		drained = append(drained, l.drain()...)
	}

	return drained
}

func (e *Executor) dropHook() {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()

	if e.removeHook != nil {
		e.removeHook()
		e.removeHook = nil
	}
}

// IsShutdown reports whether every lane has been asked to shut down.
func (e *Executor) IsShutdown() bool {
	for _, l := range e.lanes {
		if !l.isShutdown() {
			return false
		}
	}

	return true
}

// IsTerminated reports whether every lane has shut down and finished its work.
func (e *Executor) IsTerminated() bool {
	for _, l := range e.lanes {
		if !l.isTerminated() {
			return false
		}
	}

	return true
}

// AwaitTermination blocks until every lane has terminated, the timeout
// elapses or ctx is done. It reports whether the executor terminated.
func (e *Executor) AwaitTermination(ctx context.Context, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, l := range e.lanes {
		select {
		case <-l.terminated:
		case <-timer.C:
			return e.IsTerminated(), nil
		case <-ctx.Done():
			return false, fmt.Errorf("%w: %w", ErrInterruptedWait, ctx.Err())
		}
	}

	return true, nil
}

// Stats returns a snapshot of every lane, in lane order.
func (e *Executor) Stats() []LaneStats {
	stats := make([]LaneStats, len(e.lanes))

	for i, l := range e.lanes {
		stats[i] = l.stats()
	}

	return stats
}
