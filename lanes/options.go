package lanes

import (
	"fmt"
	"log/slog"
)

const defaultName = "lanes"

type options struct {
	name     string
	namer    func(index int) string
	logger   *slog.Logger
	tracing  bool
	withHook bool
}

// Option configures an Executor.
type Option func(*options)

// WithName sets the executor name used in lane names, logs and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLaneNamer overrides how lanes are named. The default is "<name>-<index+1>".
func WithLaneNamer(namer func(index int) string) Option {
	return func(o *options) {
		o.namer = namer
	}
}

// WithLogger sets the logger used by the executor and its lanes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracing wraps every task in an OpenTelemetry span.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}

// WithShutdownHook registers the executor with the shutdown package so a
// process signal shuts it down and waits for queued work to drain.
func WithShutdownHook() Option {
	return func(o *options) {
		o.withHook = true
	}
}

func (o *options) laneName(index int) string {
	if o.namer != nil {
		return o.namer(index)
	}

	return fmt.Sprintf("%s-%d", o.name, index+1)
}
