// Package script runs command line programs with standardized logging,
// signal handling, env file loading and exit code management.
package script

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/amp-labs/amp-agents/envutil"
	"github.com/amp-labs/amp-agents/logger"
	"github.com/amp-labs/amp-agents/shutdown"
	"github.com/amp-labs/amp-agents/telemetry"
)

const telemetryFlushTimeout = 5 * time.Second

// Option is a function that configures a Script.
type Option func(script *Script)

// Exit returns an error that will cause the script to exit with the given code.
// Use this to exit with a specific code without logging an error.
func Exit(code int) error {
	return &exitError{
		code: code,
	}
}

// ExitWithError returns an error that will cause the script to exit with code 1
// and log the provided error.
func ExitWithError(err error) error {
	return &exitError{
		err:  err,
		code: 1,
	}
}

// ExitWithErrorMessage returns an error that will cause the script to exit with code 1
// and log a formatted error message.
func ExitWithErrorMessage(msg string, args ...any) error {
	return &exitError{
		err:  fmt.Errorf(msg, args...), //nolint:err113
		code: 1,
	}
}

type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string {
	msg := "exit " + strconv.FormatInt(int64(e.code), 10)

	if e.err != nil {
		return msg + ": " + e.err.Error()
	}

	return msg
}

func (e *exitError) Unwrap() error {
	return e.err
}

// LogLevel sets the minimum log level for the script's logger.
func LogLevel(lvl slog.Level) Option {
	return func(script *Script) {
		script.loggerOpts = append(script.loggerOpts, func(options *logger.Options) {
			options.MinLevel = lvl
		})
	}
}

// LogOutput sets the output writer for the script's logger.
func LogOutput(writer io.Writer) Option {
	return func(script *Script) {
		script.loggerOpts = append(script.loggerOpts, func(options *logger.Options) {
			options.Output = writer
		})
	}
}

// EnableFlagParse controls whether flag.Parse() is called before running the script.
// Defaults to true.
func EnableFlagParse(enabled bool) Option {
	return func(script *Script) {
		script.flagParseEnable = enabled
	}
}

// WithEnvFile loads variables from path before the script runs. Variables
// already present in the environment win.
func WithEnvFile(path string) Option {
	return WithEnvFileProvider(func() string { return path })
}

// WithEnvFileProvider is WithEnvFile for a path known only after flags are
// parsed. An empty path is skipped.
func WithEnvFileProvider(provider func() string) Option {
	return func(script *Script) {
		script.envFiles = append(script.envFiles, provider)
	}
}

// WithTelemetry initializes OTLP trace and log export from OTEL_* variables
// and flushes it when the script ends.
func WithTelemetry(environment string) Option {
	return func(script *Script) {
		script.telemetryEnv = environment
		script.telemetry = true
	}
}

// Script represents a runnable script with configured logging and signal handling.
type Script struct {
	name            string
	flagParseEnable bool
	loggerOpts      []logger.Option
	envFiles        []func() string
	telemetry       bool
	telemetryEnv    string
}

// New creates a new Script with the given name and options.
// By default, flag parsing is enabled.
func New(scriptName string, opts ...Option) *Script {
	script := &Script{
		name:            scriptName,
		flagParseEnable: true,
	}

	for _, opt := range opts {
		opt(script)
	}

	return script
}

// Run executes the script with the provided function, handling signal interrupts
// and exit codes. The context passed to f will be canceled on SIGINT.
// Shutdown hooks run after f returns. This function calls os.Exit and does not return.
func (r *Script) Run(f func(ctx context.Context) error) {
	os.Exit(r.run(f))
}

func (r *Script) run(callback func(ctx context.Context) error) int {
	if r.flagParseEnable {
		flag.Parse()
	}

	if err := loadEnvFiles(r.envFiles); err != nil {
		slog.Error("error loading env file", "error", err)

		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	stopOnce := sync.Once{}
	cancel := func() {
		stopOnce.Do(stop)
	}

	defer cancel()

	loggerOpts := r.loggerOpts

	if r.telemetry {
		opts, done, err := startTelemetry(ctx, r.telemetryEnv)
		if err != nil {
			slog.Error("error initializing telemetry", "error", err)

			return 1
		}

		defer done()

		loggerOpts = append(loggerOpts, opts...)
	}

	_ = logger.ConfigureLogging(ctx, r.name, loggerOpts...)

	log := logger.Get(ctx)

	if callback == nil {
		log.Error("callback is nil")

		return 1
	}

	err := callback(ctx)

	shutdown.Shutdown()

	if err != nil {
		var exitErr *exitError

		if errors.As(err, &exitErr) {
			if exitErr.code != 0 {
				log.Error("error running script", "error", err)
			}

			return exitErr.code
		}

		log.Error("error running script", "error", err)

		return 1
	}

	return 0
}

func loadEnvFiles(providers []func() string) error {
	for _, provider := range providers {
		path := provider()
		if path == "" {
			continue
		}

		vars, err := envutil.LoadEnvFile(path)
		if err != nil {
			return err
		}

		if _, err := envutil.Apply(vars); err != nil {
			return err
		}
	}

	return nil
}

func startTelemetry(ctx context.Context, environment string) ([]logger.Option, func(), error) {
	cfg, err := telemetry.LoadConfigFromEnv(environment)
	if err != nil {
		return nil, nil, err
	}

	if err := telemetry.Initialize(ctx, cfg); err != nil {
		return nil, nil, err
	}

	provider, err := telemetry.InitializeLogs(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	done := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()

		if err := telemetry.Shutdown(flushCtx); err != nil {
			slog.Warn("error flushing telemetry", "error", err)
		}
	}

	var opts []logger.Option
	if provider != nil {
		opts = append(opts, logger.WithLoggerProvider(provider))
	}

	return opts, done, nil
}
