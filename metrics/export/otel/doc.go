// Package otel publishes engine metrics through an OpenTelemetry Meter.
//
// [NewExporter] creates an Int64ObservableCounter per engine counter and,
// per latency histogram, a bucket gauge carrying an "le" attribute plus a
// count gauge. One callback reads [mediauth.Engine.MetricsSnapshot] per
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
