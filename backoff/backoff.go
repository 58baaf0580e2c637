package backoff

import (
	"errors"
	"time"

	cenkalti "github.com/cenkalti/backoff/v5"
)

// ErrNegativeDelay is returned when a context is built with a negative
// initial delay.
var ErrNegativeDelay = errors.New("backoff: initial delay must not be negative")

// Strategy computes the delay of the next attempt from the current
// one. Next must be side-effect free so attempts stay reproducible.
type Strategy struct {
	// Type names the curve, for logs and tests.
	Type string

	// Next maps the current delay to the next one.
	Next func(delay time.Duration) time.Duration
}

// Constant keeps the same delay for every attempt.
func Constant() *Strategy {
	return &Strategy{
		Type: "constant",
		Next: func(delay time.Duration) time.Duration { return delay },
	}
}

// Linear grows the delay by step on every attempt.
func Linear(step time.Duration) *Strategy {
	return &Strategy{
		Type: "linear",
		Next: func(delay time.Duration) time.Duration { return delay + step },
	}
}

// Exponential multiplies the delay on every attempt, capped at max.
// A non-positive max leaves the curve uncapped.
func Exponential(multiplier float64, max time.Duration) *Strategy {
	return &Strategy{
		Type: "exponential",
		Next: func(delay time.Duration) time.Duration {
			next := time.Duration(float64(delay) * multiplier)
			if max > 0 && next > max {
				next = max
			}
			return next
		},
	}
}

// FromBackOff adapts a cenkalti/backoff policy. The adapted policy
// carries its own state, so unlike the package's own curves the
// current delay is ignored and attempts are only reproducible after
// b.Reset.
func FromBackOff(b cenkalti.BackOff) *Strategy {
	return &Strategy{
		Type: "backoff",
		Next: func(time.Duration) time.Duration { return b.NextBackOff() },
	}
}

// Config configures a backoff context.
type Config struct {
	// Strategy is the delay curve. nil disables backoff entirely.
	Strategy *Strategy

	// InitialDelay is the delay before the first attempt. Must not be
	// negative.
	InitialDelay time.Duration
}

// Context is the aspect's per-call section value: the strategy plus
// the delay of the next attempt. NextDelay only mutates inside the
// aspect's around advice.
type Context struct {
	Strategy  *Strategy
	NextDelay time.Duration
}

// NewContext validates the config and builds a fresh context.
func NewContext(cfg Config) (*Context, error) {
	if cfg.InitialDelay < 0 {
		return nil, ErrNegativeDelay
	}
	return &Context{
		Strategy:  cfg.Strategy,
		NextDelay: cfg.InitialDelay,
	}, nil
}
