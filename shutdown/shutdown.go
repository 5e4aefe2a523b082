// Package shutdown runs registered hooks when the process is asked to stop.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type hook struct {
	id uint64
	fn func()
}

var (
	mut     sync.Mutex     //nolint:gochecknoglobals
	hooks   []hook         //nolint:gochecknoglobals
	nextID  uint64         //nolint:gochecknoglobals
	channel chan os.Signal //nolint:gochecknoglobals
)

// BeforeShutdown registers a function to be called before the shutdown
// process completes. Hooks run in registration order. The returned func
// removes the hook again; calling it more than once is harmless.
func BeforeShutdown(h func()) (remove func()) {
	mut.Lock()
	defer mut.Unlock()

	nextID++
	id := nextID

	hooks = append(hooks, hook{id: id, fn: h})

	return func() {
		mut.Lock()
		defer mut.Unlock()

		for i, entry := range hooks {
			if entry.id == id {
				hooks = append(hooks[:i:i], hooks[i+1:]...)

				return
			}
		}
	}
}

// Shutdown triggers the shutdown process. Usually the
// shutdown is kicked off by a signal handler, but this
// function can be used to trigger it programmatically.
// Without a handler installed the hooks run inline.
func Shutdown() {
	mut.Lock()
	ch := channel
	mut.Unlock()

	if ch != nil {
		ch <- os.Interrupt

		return
	}

	cleanup()
}

// SetupHandler sets up a signal handler for SIGINT and SIGTERM and
// returns a context that will be canceled once the hooks have run.
func SetupHandler() context.Context {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	channel = ch
	mut.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sig := <-ch
		slog.Warn("Received " + sig.String() + ", shutting down...")

		signal.Stop(ch)

		mut.Lock()
		channel = nil
		mut.Unlock()

		cleanup()
		cancel()
	}()

	return ctx
}

func cleanup() {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	for _, h := range pending {
		h.fn()
	}
}
