// Package observability wires OpenTelemetry tracing and metrics for depkit.
//
// InitTracer and InitMeter install OTLP/HTTP exporting providers as the
// global otel providers. RegistryMetrics holds the instruments the
// dependency registry records into: lookup hit/miss counts, factory
// invocations and their duration, active overrides and promotions.
//
// # Usage
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("svc"))
//	defer tp.Shutdown(ctx)
//
//	m, err := observability.NewRegistryMetrics(observability.Meter(observability.InstrumentationName))
package observability
