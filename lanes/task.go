package lanes

import (
	"context"

	"go.uber.org/atomic"
)

// Task is a unit of work that was queued on a lane. Tasks that never started
// are handed back by ShutdownNow; the caller decides whether to Run them
// anyway or Discard them. Each task settles at most once.
type Task struct {
	key     int64
	lane    int
	run     func(ctx context.Context) error
	fail    func(err error)
	settled *atomic.Bool
}

func newTask(key int64, run func(ctx context.Context) error, fail func(err error)) *Task {
	return &Task{
		key:     key,
		lane:    -1,
		run:     run,
		fail:    fail,
		settled: atomic.NewBool(false),
	}
}

// Key returns the key the task was submitted under.
func (t *Task) Key() int64 {
	return t.key
}

// Lane returns the index of the lane the task was queued on.
func (t *Task) Lane() int {
	return t.lane
}

// Run executes a drained task on the calling goroutine, completing its
// future. It does nothing if the task already ran or was discarded.
func (t *Task) Run() {
	if !t.settled.CompareAndSwap(false, true) {
		return
	}

	_ = runGuarded(context.Background(), t)
}

// Discard fails the task's future with err, or with ErrTaskDiscarded when
// err is nil. It does nothing if the task already ran or was discarded.
func (t *Task) Discard(err error) {
	if !t.settled.CompareAndSwap(false, true) {
		return
	}

	if err == nil {
		err = ErrTaskDiscarded
	}

	t.fail(err)
}

// claim marks a task as taken by its lane.
func (t *Task) claim() bool {
	return t.settled.CompareAndSwap(false, true)
}
