package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/weft/weave"
)

// bufferObserver is an Observer with noop telemetry and a captured log
// stream.
type bufferObserver struct {
	logger Logger
}

func (o *bufferObserver) Tracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer("test")
}

func (o *bufferObserver) Meter() metric.Meter {
	return metricnoop.NewMeterProvider().Meter("test")
}

func (o *bufferObserver) Logger() Logger                 { return o.logger }
func (o *bufferObserver) Shutdown(context.Context) error { return nil }

func TestNewAspect_Validation(t *testing.T) {
	obs := &bufferObserver{logger: &noopLogger{}}

	if _, err := NewAspect("", obs); !errors.Is(err, ErrMissingAspectName) {
		t.Errorf("NewAspect() error = %v, want ErrMissingAspectName", err)
	}
	if _, err := NewAspect("telemetry", nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("NewAspect() error = %v, want ErrNilObserver", err)
	}
}

func TestNewAspect_LogsSuccess(t *testing.T) {
	var buf bytes.Buffer
	obs := &bufferObserver{logger: NewLoggerWithWriter("debug", &buf)}

	aspect, err := NewAspect("telemetry", obs)
	if err != nil {
		t.Fatalf("NewAspect() error = %v", err)
	}
	w, err := weave.NewWeaver(nil, aspect)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}

	out, err := w.Weave(func(context.Context) (any, error) {
		return "ok", nil
	}).Call(context.Background())
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("Value = %v, want ok", out.Value)
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want started+completed", len(entries))
	}
	if entries[0]["msg"] != "call started" || entries[1]["msg"] != "call completed" {
		t.Errorf("messages = %v, %v", entries[0]["msg"], entries[1]["msg"])
	}
	if entries[0]["aspect.name"] != "telemetry" {
		t.Errorf("aspect.name = %v, want telemetry", entries[0]["aspect.name"])
	}
}

func TestNewAspect_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	obs := &bufferObserver{logger: NewLoggerWithWriter("info", &buf)}

	aspect, err := NewAspect("telemetry", obs)
	if err != nil {
		t.Fatalf("NewAspect() error = %v", err)
	}
	w, err := weave.NewWeaver(nil, aspect)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}

	boom := errors.New("boom")
	if _, err := w.Weave(func(context.Context) (any, error) {
		return nil, boom
	}).Call(context.Background()); err == nil {
		t.Fatal("Call() error = nil, want failure")
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1 failure entry", len(entries))
	}
	if entries[0]["msg"] != "call failed" {
		t.Errorf("msg = %v, want call failed", entries[0]["msg"])
	}
	errField, _ := entries[0]["error"].(string)
	if errField == "" {
		t.Error("error field missing from failure entry")
	}
}
