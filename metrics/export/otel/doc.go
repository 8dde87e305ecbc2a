// Package otel exports goAuthClient metrics through OpenTelemetry.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter, an
// Int64ObservableGauge per engine state field and per histogram bucket, and a
// Float64ObservableGauge for the latency sum. A single callback reads
// [goAuthClient.Engine.MetricsSnapshot] once per collection cycle. Disabled
// counters are not observed; state is observed on every cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
