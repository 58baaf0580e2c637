// Package retry drives re-invocation of a woven target. It is the
// upstream interpreter of the engine's signals: a retry signal
// re-invokes, a timeout fails the attempt and re-invokes, anything
// else gives up. All attempts share one scope, so per-call aspect
// state such as a growing backoff delay persists across attempts.
package retry

import (
	"context"
	"fmt"

	"github.com/jonwraymond/weft/signal"
	"github.com/jonwraymond/weft/weave"
)

// Config configures the retry driver.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the
	// initial one). Default: 3
	MaxAttempts int

	// RetryIf decides whether a failed attempt is re-invoked.
	// Default: retry and timeout signals are retried, everything else
	// gives up.
	RetryIf func(err error) bool

	// OnRetry is called before each re-invocation.
	OnRetry func(attempt int, err error)
}

// Driver re-invokes a woven target per its config.
type Driver struct {
	config Config
}

// NewDriver creates a retry driver.
func NewDriver(config Config) *Driver {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool {
			return signal.Is(err, signal.KindRetry) || signal.Is(err, signal.KindTimeout)
		}
	}
	return &Driver{config: config}
}

// Do runs the woven target until it succeeds, a non-retryable failure
// surfaces, or attempts are exhausted. Exhaustion fails with a
// retry-exceeded signal carrying the last attempt's failure in its
// chain.
func (d *Driver) Do(ctx context.Context, woven *weave.Woven) (*weave.Outcome, error) {
	var out *weave.Outcome
	err := woven.Scope().Execute(ctx, func(ctx context.Context) error {
		var lastErr error
		for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
			o, err := woven.Invoke(ctx)
			if err == nil {
				out = o
				return nil
			}
			lastErr = err

			if !d.config.RetryIf(err) {
				return err
			}
			if attempt >= d.config.MaxAttempts {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.config.OnRetry != nil {
				d.config.OnRetry(attempt, err)
			}
		}
		return fmt.Errorf("%w: last attempt: %w", signal.RetryExceeded(d.config.MaxAttempts), lastErr)
	})
	return out, err
}

// Config returns the driver configuration.
func (d *Driver) Config() Config {
	return d.config
}
