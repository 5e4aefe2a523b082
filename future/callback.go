package future

import (
	"runtime/debug"

	"github.com/amp-labs/amp-agents/errors"
	"github.com/amp-labs/amp-agents/logger"
)

// invokeCallback runs a user callback in its own goroutine so completing a
// promise never blocks on it. Panics are recovered and logged.
func invokeCallback[T any](kind string, callback func(T), value T) {
	if callback == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Get().Error("panic encountered in future."+kind+" callback",
					"error", errors.FromPanic(r, debug.Stack()))
			}
		}()

		callback(value)
	}()
}
