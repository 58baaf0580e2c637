package exporters

import (
	"context"
	"testing"
)

func TestNewTracingExporter_None(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "none")
	if err != nil {
		t.Fatalf("NewTracingExporter() error = %v", err)
	}
	if exp == nil {
		t.Fatal("NewTracingExporter() = nil")
	}
	_ = exp.Shutdown(context.Background())
}

func TestNewTracingExporter_Unknown(t *testing.T) {
	if _, err := NewTracingExporter(context.Background(), "carrier-pigeon"); err == nil {
		t.Error("NewTracingExporter() error = nil, want unknown exporter error")
	}
}

func TestNewTracingExporter_OTLPRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), "otlp"); err == nil {
		t.Error("NewTracingExporter() error = nil, want endpoint error")
	}
}

func TestNewMetricsReader_None(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "none")
	if err != nil {
		t.Fatalf("NewMetricsReader() error = %v", err)
	}
	if reader == nil {
		t.Fatal("NewMetricsReader() = nil")
	}
	_ = reader.Shutdown(context.Background())
}

func TestNewMetricsReader_Prometheus(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "prometheus")
	if err != nil {
		t.Fatalf("NewMetricsReader() error = %v", err)
	}
	_ = reader.Shutdown(context.Background())
}

func TestNewMetricsReader_Unknown(t *testing.T) {
	if _, err := NewMetricsReader(context.Background(), "carrier-pigeon"); err == nil {
		t.Error("NewMetricsReader() error = nil, want unknown exporter error")
	}
}
