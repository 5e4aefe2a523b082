package lanes

import (
	"context"
	"log/slog"
	"runtime/debug"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/amp-labs/amp-agents/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const tracerName = "github.com/amp-labs/amp-agents/lanes"

// lane is one single-goroutine worker with a private, unbounded FIFO queue.
type lane struct {
	index    int
	name     string
	executor string
	log      *slog.Logger
	tracing  bool

	mu       sync.Mutex
	queue    []*Task
	shutdown bool
	running  bool

	wake       chan struct{}
	terminated chan struct{}

	ctx    context.Context //nolint:containedctx
	cancel context.CancelFunc

	completed *atomic.Int64
	failed    *atomic.Int64
}

func newLane(index int, name, executor string, log *slog.Logger, tracing bool) *lane {
	ctx, cancel := context.WithCancel(context.Background())

	return &lane{
		index:      index,
		name:       name,
		executor:   executor,
		log:        log.With("lane", name),
		tracing:    tracing,
		wake:       make(chan struct{}, 1),
		terminated: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		completed:  atomic.NewInt64(0),
		failed:     atomic.NewInt64(0),
	}
}

// start launches the lane goroutine. The goroutine carries pprof labels so
// lanes can be told apart in profiles and goroutine dumps.
func (l *lane) start() {
	lanesAlive.WithLabelValues(l.executor).Inc()
	queueDepth.WithLabelValues(l.executor, l.name).Set(0)

	go pprof.Do(l.ctx, pprof.Labels("executor", l.executor, "lane", l.name), func(ctx context.Context) {
		defer close(l.terminated)
		defer l.cancel()
		defer lanesAlive.WithLabelValues(l.executor).Dec()

		l.loop(ctx)
	})
}

func (l *lane) loop(ctx context.Context) {
	for {
		task, ok := l.next()
		if !ok {
			return
		}

		l.execute(ctx, task)
	}
}

// next blocks until a task is available or the lane is shut down and empty.
func (l *lane) next() (*Task, bool) {
	l.mu.Lock()

	for {
		if len(l.queue) > 0 {
			task := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.running = true
			depth := len(l.queue)
			l.mu.Unlock()

			queueDepth.WithLabelValues(l.executor, l.name).Set(float64(depth))

			return task, true
		}

		l.running = false

		if l.shutdown {
			l.mu.Unlock()

			return nil, false
		}

		l.mu.Unlock()
		<-l.wake
		l.mu.Lock()
	}
}

func (l *lane) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *lane) enqueue(task *Task) error {
	l.mu.Lock()

	if l.shutdown {
		l.mu.Unlock()

		return ErrRejectedSubmission
	}

	task.lane = l.index
	l.queue = append(l.queue, task)
	depth := len(l.queue)

	l.mu.Unlock()

	l.signal()

	tasksSubmitted.WithLabelValues(l.executor, l.name).Inc()
	queueDepth.WithLabelValues(l.executor, l.name).Set(float64(depth))

	return nil
}

func (l *lane) execute(ctx context.Context, task *Task) {
	if !task.claim() {
		return
	}

	span := trace.SpanFromContext(ctx)

	if l.tracing {
		ctx, span = otel.Tracer(tracerName).Start(ctx, "lanes.task",
			trace.WithAttributes(
				attribute.String("lanes.executor", l.executor),
				attribute.String("lanes.lane", l.name),
				attribute.Int64("lanes.key", task.key),
			))
		defer span.End()
	}

	start := time.Now()

	err, panicked := runGuardedReport(ctx, task)

	taskDuration.WithLabelValues(l.executor, l.name).Observe(time.Since(start).Seconds())

	if panicked {
		tasksPanicked.WithLabelValues(l.executor, l.name).Inc()

		l.log.Error("lane recovered from panic",
			"key", task.key,
			"error", err)
	}

	if err != nil {
		l.failed.Inc()
		tasksFailed.WithLabelValues(l.executor, l.name).Inc()

		if span.IsRecording() {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return
	}

	l.completed.Inc()
	tasksCompleted.WithLabelValues(l.executor, l.name).Inc()
}

// runGuarded runs a task, turning a panic into a failure of its future.
func runGuarded(ctx context.Context, task *Task) error {
	err, _ := runGuardedReport(ctx, task)

	return err
}

func runGuardedReport(ctx context.Context, task *Task) (err error, panicked bool) { //nolint:revive
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic(r, debug.Stack())
			panicked = true

			task.fail(err)
		}
	}()

	return task.run(ctx), false
}

func (l *lane) requestShutdown() {
	l.mu.Lock()
	l.shutdown = true
	l.mu.Unlock()

	l.signal()
}

// drain stops the lane, cancels its context and returns the unstarted tasks.
func (l *lane) drain() []*Task {
	l.mu.Lock()
	l.shutdown = true
	pending := l.queue
	l.queue = nil
	l.mu.Unlock()

	l.cancel()
	l.signal()

	queueDepth.WithLabelValues(l.executor, l.name).Set(0)
	tasksDrained.WithLabelValues(l.executor, l.name).Add(float64(len(pending)))

	return pending
}

func (l *lane) isShutdown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.shutdown
}

func (l *lane) isTerminated() bool {
	select {
	case <-l.terminated:
		return true
	default:
		return false
	}
}

// LaneFromContext returns the name of the lane running the task that owns ctx.
func LaneFromContext(ctx context.Context) (string, bool) {
	return pprof.Label(ctx, "lane")
}

// LaneStats is a point-in-time view of one lane.
type LaneStats struct {
	Index     int
	Name      string
	Queued    int
	Running   bool
	Completed int64
	Failed    int64
}

func (l *lane) stats() LaneStats {
	l.mu.Lock()
	queued := len(l.queue)
	running := l.running
	l.mu.Unlock()

	return LaneStats{
		Index:     l.index,
		Name:      l.name,
		Queued:    queued,
		Running:   running,
		Completed: l.completed.Load(),
		Failed:    l.failed.Load(),
	}
}
