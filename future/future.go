// Package future provides single-assignment asynchronous results.
//
// A Future is the read side and a Promise the write side of one computation.
// A future completes exactly once, either with a value or with an error, and
// every goroutine waiting on it is released at the same moment. Futures can be
// chained with Map and FlatMap so that a follow-up computation only starts
// after the previous one resolved.
package future

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/amp-labs/amp-agents/errors"
	"github.com/amp-labs/amp-agents/try"
)

// Future is the read-only side of an asynchronous computation.
type Future[T any] struct {
	once        sync.Once
	result      try.Try[T]
	resultReady chan struct{}

	mu               sync.Mutex
	successCallbacks []func(T)
	errorCallbacks   []func(error)
	resultCallbacks  []func(try.Try[T])
}

// New creates a pending future together with the promise that completes it.
func New[T any]() (*Future[T], *Promise[T]) {
	fut := &Future[T]{
		resultReady: make(chan struct{}),
	}

	return fut, &Promise[T]{future: fut}
}

// Completed returns a future that already holds value.
func Completed[T any](value T) *Future[T] {
	fut, promise := New[T]()
	promise.Success(value)

	return fut
}

// Failed returns a future that already failed with err.
func Failed[T any](err error) *Future[T] {
	fut, promise := New[T]()
	promise.Failure(err)

	return fut
}

// Go runs fn in a new goroutine and returns a future for its result.
// A panic inside fn fails the future with an error wrapping
// errors.ErrPanicRecovery.
func Go[T any](fn func() (T, error)) *Future[T] {
	fut, promise := New[T]()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				promise.Failure(errors.FromPanic(r, debug.Stack()))
			}
		}()

		promise.Complete(fn())
	}()

	return fut
}

// Done returns a channel that is closed once the future has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.resultReady
}

// IsDone reports whether the future has completed, without blocking.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.resultReady:
		return true
	default:
		return false
	}
}

// Await blocks until the future completes and returns its outcome.
func (f *Future[T]) Await() (T, error) { //nolint:ireturn
	<-f.resultReady

	return f.result.Get()
}

// AwaitContext is like Await but gives up when ctx is done, returning the
// context's error. Giving up does not affect the underlying computation.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) { //nolint:ireturn
	select {
	case <-f.resultReady:
		return f.result.Get()
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// Result returns the outcome and true if the future has completed, or a
// zero Try and false if it is still pending.
func (f *Future[T]) Result() (try.Try[T], bool) {
	if !f.IsDone() {
		return try.Try[T]{}, false
	}

	return f.result, true
}

// ToChannel returns a channel that receives the outcome once and is then closed.
func (f *Future[T]) ToChannel() <-chan try.Try[T] {
	ch := make(chan try.Try[T], 1)

	f.OnResult(func(result try.Try[T]) {
		ch <- result
		close(ch)
	})

	return ch
}

// OnSuccess registers a callback for a successful outcome. Callbacks run in
// their own goroutine; registering after completion runs the callback right away.
func (f *Future[T]) OnSuccess(callback func(T)) {
	f.register(func() {
		f.successCallbacks = append(f.successCallbacks, callback)
	}, func(result try.Try[T]) {
		if result.IsSuccess() {
			invokeCallback("OnSuccess", callback, result.Value)
		}
	})
}

// OnError registers a callback for a failed outcome.
func (f *Future[T]) OnError(callback func(error)) {
	f.register(func() {
		f.errorCallbacks = append(f.errorCallbacks, callback)
	}, func(result try.Try[T]) {
		if result.IsFailure() {
			invokeCallback("OnError", callback, result.Error)
		}
	})
}

// OnResult registers a callback that receives the outcome either way.
func (f *Future[T]) OnResult(callback func(try.Try[T])) {
	f.register(func() {
		f.resultCallbacks = append(f.resultCallbacks, callback)
	}, func(result try.Try[T]) {
		invokeCallback("OnResult", callback, result)
	})
}

// register either queues a callback (pending future) or fires it (completed
// future). The mutex orders this against fulfill collecting the callbacks.
func (f *Future[T]) register(enqueue func(), fire func(try.Try[T])) {
	f.mu.Lock()

	if !f.IsDone() {
		enqueue()
		f.mu.Unlock()

		return
	}

	f.mu.Unlock()

	fire(f.result)
}

// Map returns a future holding fn applied to the value of fut.
// A failure of fut, or an error from fn, fails the returned future.
func Map[A, B any](fut *Future[A], fn func(A) (B, error)) *Future[B] {
	out, promise := New[B]()

	fut.OnResult(func(result try.Try[A]) {
		if result.IsFailure() {
			promise.Failure(result.Error)

			return
		}

		defer recoverInto(promise)

		promise.Complete(fn(result.Value))
	})

	return out
}

// FlatMap chains a dependent asynchronous step: fn is only called once fut
// has succeeded, and the returned future completes with the outcome of the
// future fn produces. A failure anywhere short-circuits the chain.
func FlatMap[A, B any](fut *Future[A], fn func(A) *Future[B]) *Future[B] {
	out, promise := New[B]()

	fut.OnResult(func(result try.Try[A]) {
		if result.IsFailure() {
			promise.Failure(result.Error)

			return
		}

		defer recoverInto(promise)

		next := fn(result.Value)
		next.OnResult(promise.fulfill)
	})

	return out
}

func recoverInto[T any](promise *Promise[T]) {
	if r := recover(); r != nil {
		promise.Failure(errors.FromPanic(r, debug.Stack()))
	}
}
