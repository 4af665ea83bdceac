// Package prometheus exposes engine metrics through client_golang.
//
// [Collector] implements prometheus.Collector and translates each
// MetricsSnapshot into const metrics at scrape time. Register it on any
// registry, or mount [Collector.Handler] which uses a private one. Counter
// names follow mediauth_*_total; latency histograms are
// mediauth_{login,refresh,validate}_latency_seconds.
//
// # What this package must NOT do
//
//   - Register on the global default registry.
//   - Mutate engine state.
package prometheus
