package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/weft/middleware"
	"github.com/jonwraymond/weft/weave"
)

// callState is the telemetry middleware's per-call section value.
type callState struct {
	start time.Time
	span  trace.Span
}

// NewAspect builds a middleware that traces, measures and logs every
// composed call it is registered on. The span covers the whole call
// from the before stage to cleanup; it does not parent spans the
// target starts itself.
func NewAspect(name string, obs Observer) (*weave.Aspect, error) {
	if name == "" {
		return nil, ErrMissingAspectName
	}
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := NewTracer(obs.Tracer())
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	meta := AspectMeta{Name: name}
	logger := obs.Logger().WithAspect(meta)

	return middleware.New(middleware.Options[callState]{
		Name:       name,
		NewContext: func() *callState { return &callState{} },
		Before: func(ctx context.Context, s *callState) error {
			s.start = time.Now()
			_, s.span = tracer.StartSpan(ctx, meta)
			logger.Debug(ctx, "call started")
			return nil
		},
		Complete: func(ctx context.Context, s *callState) error {
			logger.Info(ctx, "call completed",
				Field{Key: "duration_ms", Value: float64(time.Since(s.start).Milliseconds())},
			)
			return nil
		},
		Failure: func(ctx context.Context, s *callState, cause error) error {
			fields := []Field{
				{Key: "duration_ms", Value: float64(time.Since(s.start).Milliseconds())},
			}
			if cause != nil {
				fields = append(fields, Field{Key: "error", Value: cause.Error()})
			}
			logger.Error(ctx, "call failed", fields...)
			return nil
		},
		Cleanup: func(ctx context.Context, s *callState) error {
			cause := weave.FailureFromContext(ctx)
			if s.span != nil {
				tracer.EndSpan(s.span, cause)
			}
			if !s.start.IsZero() {
				metrics.RecordCall(ctx, meta, time.Since(s.start), cause)
			}
			return nil
		},
	})
}
