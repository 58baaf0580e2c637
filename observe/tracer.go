package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// AspectMeta identifies a composed call for telemetry purposes.
type AspectMeta struct {
	Name   string // aspect or middleware name (required)
	Target string // logical name of the wrapped operation (optional)
	Stage  string // lifecycle stage, empty for whole-call spans
}

// SpanName returns the deterministic span name.
// Format: weave.call.<name> or weave.advice.<stage>.<name>
func (m AspectMeta) SpanName() string {
	if m.Stage != "" {
		return "weave.advice." + m.Stage + "." + m.Name
	}
	return "weave.call." + m.Name
}

// Tracer wraps OpenTelemetry tracing with call-specific span
// management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a composed call or one advice.
	StartSpan(ctx context.Context, meta AspectMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with aspect metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta AspectMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("weave.aspect", meta.Name),
		attribute.Bool("weave.error", false), // updated in EndSpan on error
	}
	if meta.Target != "" {
		attrs = append(attrs, attribute.String("weave.target", meta.Target))
	}
	if meta.Stage != "" {
		attrs = append(attrs, attribute.String("weave.stage", meta.Stage))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("weave.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, _ AspectMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, "noop")
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
