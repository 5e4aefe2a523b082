package future

import (
	"github.com/amp-labs/amp-agents/try"
)

// Promise is the write-only side of an asynchronous computation.
//
// A promise can only be fulfilled once: later calls to Success, Failure or
// Complete are ignored. Fulfilling it releases every goroutine waiting on
// the associated future and schedules the registered callbacks.
type Promise[T any] struct {
	future *Future[T]
}

// Future returns the read side this promise completes.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// fulfill stores the outcome, closes resultReady and hands the callbacks
// that were registered so far to invokeCallback. Callbacks are collected
// under the mutex so none registered concurrently can be lost.
func (p *Promise[T]) fulfill(result try.Try[T]) {
	p.future.once.Do(func() {
		p.future.result = result

		p.future.mu.Lock()

		close(p.future.resultReady)

		successCallbacks := p.future.successCallbacks
		errorCallbacks := p.future.errorCallbacks
		resultCallbacks := p.future.resultCallbacks

		p.future.successCallbacks = nil
		p.future.errorCallbacks = nil
		p.future.resultCallbacks = nil

		p.future.mu.Unlock()

		for _, callback := range resultCallbacks {
			invokeCallback("OnResult", callback, result)
		}

		if result.IsSuccess() {
			for _, callback := range successCallbacks {
				invokeCallback("OnSuccess", callback, result.Value)
			}
		} else {
			for _, callback := range errorCallbacks {
				invokeCallback("OnError", callback, result.Error)
			}
		}
	})
}

// Success fulfills the promise with a successful value.
func (p *Promise[T]) Success(value T) {
	p.fulfill(try.Success(value))
}

// Failure fulfills the promise with an error.
func (p *Promise[T]) Failure(err error) {
	p.fulfill(try.Failure[T](err))
}

// Complete fulfills the promise from a (value, error) pair: a non-nil err
// wins and the value is dropped.
func (p *Promise[T]) Complete(value T, err error) {
	p.fulfill(try.Of(value, err))
}
