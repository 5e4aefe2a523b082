package lanes

import (
	"fmt"
	"runtime"

	"github.com/amp-labs/amp-agents/envutil"
	"github.com/amp-labs/amp-agents/errors"
)

// Config describes an executor as read from the environment.
type Config struct {
	Count   int
	Name    string
	Tracing bool
}

// ConfigFromEnv reads LANES_COUNT, LANES_NAME and LANES_TRACING.
func ConfigFromEnv() (Config, error) {
	var errs errors.Collection

	count, err := envutil.Int("LANES_COUNT",
		envutil.Default(runtime.NumCPU()),
		envutil.Validate(func(n int) error {
			if n < 1 {
				return fmt.Errorf("%w: LANES_COUNT must be at least 1, got %d", ErrInvalidConfiguration, n)
			}

			return nil
		})).Value()
	errs.Add(err)

	name, err := envutil.String("LANES_NAME", envutil.Default(defaultName)).Value()
	errs.Add(err)

	tracing, err := envutil.Bool("LANES_TRACING", envutil.Default(false)).Value()
	errs.Add(err)

	if errs.HasError() {
		return Config{}, errs.GetError()
	}

	return Config{Count: count, Name: name, Tracing: tracing}, nil
}

// NewFromConfig starts an executor from cfg. Options given here override
// the config.
func NewFromConfig(cfg Config, opts ...Option) (*Executor, error) {
	base := []Option{WithName(cfg.Name), WithTracing(cfg.Tracing)}

	return New(cfg.Count, append(base, opts...)...)
}
