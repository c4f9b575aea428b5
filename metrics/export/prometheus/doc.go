// Package prometheus provides Prometheus collectors for mcsession metrics.
//
// [NewPrometheusExporter] accepts an [mcsession.Manager] and exposes an [http.Handler]
// that renders all mcsession counters and histograms in Prometheus text exposition
// format. Counter names are prefixed mcsession_*_total; the single histogram is
// mcsession_refresh_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate manager state.
package prometheus
