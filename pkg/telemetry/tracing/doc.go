// Package tracing provides OpenTelemetry tracing for ladder evaluations.
//
// The HTTP server wraps routes with Tracer.Middleware and annotates the
// evaluation span with SetDecisionAttributes. Spans are exported over
// OTLP gRPC when telemetry.tracing.enabled is set; otherwise every span is
// a noop.
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
package tracing
