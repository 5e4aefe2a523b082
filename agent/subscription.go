package agent

import (
	"log/slog"
	"runtime/debug"
	"sync"

	amperrors "github.com/amp-labs/amp-agents/errors"
	"go.uber.org/atomic"
)

// Subscription is the handle returned by Watch.
type Subscription struct {
	active *atomic.Bool
	remove func()
	once   sync.Once
}

// Unwatch stops the handler. Once it returns, the handler is not called for
// any transition that commits afterwards. Calling it again does nothing.
func (s *Subscription) Unwatch() {
	s.once.Do(func() {
		s.active.Store(false)
		s.remove()
	})
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

type watcher[S any] struct {
	id      uint64
	active  *atomic.Bool
	handler func(S)
}

// watchers is an agent's subscriber set. Subscriptions point here rather
// than at the agent.
type watchers[S any] struct {
	executor string

	mu     sync.Mutex
	nextID uint64
	list   []watcher[S]
}

func (w *watchers[S]) add(handler func(S)) *Subscription {
	active := atomic.NewBool(true)

	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.list = append(w.list, watcher[S]{id: id, active: active, handler: handler})
	count := len(w.list)
	w.mu.Unlock()

	subscribers.WithLabelValues(w.executor).Set(float64(count))

	return &Subscription{
		active: active,
		remove: func() { w.remove(id) },
	}
}

func (w *watchers[S]) remove(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, entry := range w.list {
		if entry.id == id {
			w.list = append(w.list[:i:i], w.list[i+1:]...)

			break
		}
	}

	subscribers.WithLabelValues(w.executor).Set(float64(len(w.list)))
}

// snapshot is safe to iterate without the lock: list is only ever replaced,
// never modified in place.
func (w *watchers[S]) snapshot() []watcher[S] {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.list
}

func (w *watchers[S]) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.list)
}

// notify calls every active handler with state, in registration order.
func (w *watchers[S]) notify(log *slog.Logger, state S) {
	for _, entry := range w.snapshot() {
		if !entry.active.Load() {
			continue
		}

		invoke(log, w.executor, entry.handler, state)
	}
}

func invoke[S any](log *slog.Logger, executor string, handler func(S), state S) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.WithLabelValues(executor).Inc()

			log.Error("agent watcher panicked",
				"error", amperrors.FromPanic(r, nil),
				"stack", string(debug.Stack()))
		}
	}()

	handler(state)
	notifications.WithLabelValues(executor).Inc()
}

// Watch registers handler to be called on the agent's lane with the new
// state after every successful transition. A panicking handler is logged
// and skipped.
func (a *Agent[S]) Watch(handler func(S)) *Subscription {
	return a.watchers.add(handler)
}

// Subscribers returns the number of registered handlers.
func (a *Agent[S]) Subscribers() int {
	return a.watchers.size()
}
