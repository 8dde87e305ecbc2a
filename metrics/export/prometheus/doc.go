// Package prometheus renders goAuthClient metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [goAuthClient.Engine] and exposes an
// [http.Handler]. Counter names are prefixed goauthclient_*_total; the single
// histogram is goauthclient_token_fetch_latency_seconds. Engine state gauges
// (token fetches in flight, client version, attestation prepared) are
// rendered on every scrape, even with counters disabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
