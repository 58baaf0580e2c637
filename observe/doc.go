// Package observe provides telemetry for woven calls: OpenTelemetry
// tracing and metrics plus structured JSON logging, keyed by aspect
// and lifecycle stage.
//
// NewObserver wires providers and exporters from a Config. NewAspect
// turns an Observer into a middleware that traces, measures and logs
// every composed call it is registered on, so observability itself
// rides the engine's advice protocol.
package observe
