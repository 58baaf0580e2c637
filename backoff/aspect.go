package backoff

import (
	"context"
	"time"

	"github.com/jonwraymond/weft/signal"
	"github.com/jonwraymond/weft/weave"
)

// Aspect builds an around aspect that delays each invocation of the
// target by the context's current delay, advancing the delay for the
// next attempt via the strategy. With a nil strategy the aspect leaves
// the target untouched. The section is keyed by name; a retry driver
// sharing one scope across attempts sees the delay grow per attempt.
func Aspect(name string, cfg Config) (*weave.Aspect, error) {
	if _, err := NewContext(cfg); err != nil {
		return nil, err
	}

	sec := weave.Section(name)
	return weave.NewAspect(name,
		weave.WithSection(sec, func() any {
			bc, _ := NewContext(cfg)
			return bc
		}),
		weave.WithAround([]weave.Section{sec}, func(_ context.Context, v *weave.View, next weave.Target) (weave.Target, error) {
			val, err := v.Get(sec)
			if err != nil {
				return nil, err
			}
			bc, ok := val.(*Context)
			if !ok || bc == nil {
				return nil, signal.InvalidContext(name)
			}
			if bc.Strategy == nil {
				return nil, nil
			}

			delay := bc.NextDelay
			bc.NextDelay = bc.Strategy.Next(delay)

			return func(ctx context.Context) (any, error) {
				if delay > 0 {
					timer := time.NewTimer(delay)
					defer timer.Stop()
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-timer.C:
					}
				}
				return next(ctx)
			}, nil
		}),
	), nil
}
