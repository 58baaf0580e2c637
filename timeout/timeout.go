// Package timeout bounds target execution time. Expiry surfaces as a
// timeout signal, which competes with other signals via the priority
// mechanism and is interpreted upstream as "stop waiting and fail this
// attempt".
package timeout

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/weft/signal"
	"github.com/jonwraymond/weft/weave"
)

// DefaultTimeout applies when the configured duration is not positive.
const DefaultTimeout = 30 * time.Second

// Aspect builds an around aspect that runs the target under a
// deadline. On expiry the attempt fails with signal.Timeout(d); other
// context cancellation propagates unchanged.
func Aspect(name string, d time.Duration) *weave.Aspect {
	if d <= 0 {
		d = DefaultTimeout
	}

	return weave.NewAspect(name,
		weave.WithAround(nil, func(_ context.Context, _ *weave.View, next weave.Target) (weave.Target, error) {
			return func(ctx context.Context) (any, error) {
				ctx, cancel := context.WithTimeout(ctx, d)
				defer cancel()

				type result struct {
					value any
					err   error
				}
				done := make(chan result, 1)
				go func() {
					value, err := next(ctx)
					done <- result{value, err}
				}()

				select {
				case r := <-done:
					return r.value, r.err
				case <-ctx.Done():
					if errors.Is(ctx.Err(), context.DeadlineExceeded) {
						return nil, signal.Timeout(d)
					}
					return nil, ctx.Err()
				}
			}, nil
		}),
	)
}
