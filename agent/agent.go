// Package agent holds a value whose read-modify-write transitions are
// serialized on one lane of a lanes.Executor.
//
// Every agent is bound to a routing key for its whole life, so all of its
// transitions land on the same lane and run one at a time in the order they
// were sent. Many agents share the executor's lanes. Reads never go through
// the executor: Read returns the most recently published state.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"

	amperrors "github.com/amp-labs/amp-agents/errors"
	"github.com/amp-labs/amp-agents/future"
	"github.com/amp-labs/amp-agents/hashing"
	"github.com/amp-labs/amp-agents/lanes"
	"github.com/amp-labs/amp-agents/logger"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// ErrAbsentState is returned when an agent is created without an initial
// state or without an executor.
var ErrAbsentState = errors.New("agent state is absent")

// Agent is a state holder bound to one lane.
type Agent[S any] struct {
	id       uuid.UUID
	key      int64
	name     string
	exec     *lanes.Executor
	state    *atomic.Pointer[S]
	watchers *watchers[S]
	log      *slog.Logger
}

type options struct {
	name   string
	key    int64
	hasKey bool
	logger *slog.Logger
}

// Option configures an Agent.
type Option func(*options)

// WithName sets the name used in logs. It defaults to the agent's id.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithKey routes the agent by key instead of the hash of its id.
func WithKey(key int64) Option {
	return func(o *options) {
		o.key = key
		o.hasKey = true
	}
}

// WithLogger sets the logger used for handler panics and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates an agent holding initial, bound to a lane of exec.
func New[S any](exec *lanes.Executor, initial S, opts ...Option) (*Agent[S], error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is nil", ErrAbsentState)
	}

	if isAbsent(initial) {
		return nil, fmt.Errorf("%w: initial state is nil", ErrAbsentState)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	id := uuid.New()

	if !o.hasKey {
		o.key = hashing.Key64(id[:])
	}

	if o.name == "" {
		o.name = id.String()
	}

	if o.logger == nil {
		o.logger = logger.Get()
	}

	a := &Agent[S]{
		id:       id,
		key:      o.key,
		name:     o.name,
		exec:     exec,
		state:    atomic.NewPointer(&initial),
		watchers: &watchers[S]{executor: exec.Name()},
		log:      o.logger.With("agent", o.name, "lane", exec.LaneName(exec.LaneFor(o.key))),
	}

	a.log.Debug("agent created", "id", id, "key", o.key)

	return a, nil
}

// Send queues op on the agent's lane. When it runs, op receives the current
// state. If op succeeds its state is published, watchers are notified in
// registration order, and then the future resolves with op's result. If op
// fails or panics the state is left alone, nobody is notified and the future
// fails with op's error.
//
// op must not modify the state it is given in place.
func Send[S, T any](a *Agent[S], op func(S) (S, T, error)) *future.Future[T] {
	return lanes.Submit(a.exec, a.key, func(context.Context) (T, error) {
		return transition(a, op)
	})
}

// Update queues op and resolves with the state it produced.
func (a *Agent[S]) Update(op func(S) (S, error)) *future.Future[S] {
	return Send(a, func(s S) (S, S, error) {
		next, err := op(s)

		return next, next, err
	})
}

func transition[S, T any](a *Agent[S], op func(S) (S, T, error)) (T, error) {
	next, result, err := apply(a.Read(), op)
	if err != nil {
		transitionsFailed.WithLabelValues(a.exec.Name()).Inc()

		var zero T

		return zero, err
	}

	a.state.Store(&next)
	transitionsCommitted.WithLabelValues(a.exec.Name()).Inc()

	a.watchers.notify(a.log, next)

	return result, nil
}

func apply[S, T any](current S, op func(S) (S, T, error)) (next S, result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			transitionPanics.Inc()

			err = amperrors.FromPanic(r, debug.Stack())
		}
	}()

	return op(current)
}

// Read returns the most recently published state without waiting for
// queued transitions.
func (a *Agent[S]) Read() S { //nolint:ireturn
	return *a.state.Load()
}

// ID returns the agent's identity.
func (a *Agent[S]) ID() uuid.UUID {
	return a.id
}

// Key returns the routing key the agent was bound to.
func (a *Agent[S]) Key() int64 {
	return a.key
}

// Name returns the agent's name.
func (a *Agent[S]) Name() string {
	return a.name
}

// Lane returns the index of the lane the agent runs on.
func (a *Agent[S]) Lane() int {
	return a.exec.LaneFor(a.key)
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
