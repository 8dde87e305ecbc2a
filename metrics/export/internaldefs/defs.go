package internaldefs

import (
	"strings"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order. Dropped events are exported
// from EngineState instead of MetricEventsDropped.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricTokenCacheHit, Name: "goauthclient_token_cache_hit_total", Help: "GetToken calls answered from the token cache."},
	{ID: goAuthClient.MetricTokenCacheMiss, Name: "goauthclient_token_cache_miss_total", Help: "GetToken calls that required a token fetch."},
	{ID: goAuthClient.MetricTokenFetchSuccess, Name: "goauthclient_token_fetch_success_total", Help: "Successful token endpoint calls."},
	{ID: goAuthClient.MetricTokenFetchFailure, Name: "goauthclient_token_fetch_failure_total", Help: "Failed token endpoint calls."},
	{ID: goAuthClient.MetricTokenMalformed, Name: "goauthclient_token_malformed_total", Help: "Issued tokens rejected as malformed."},
	{ID: goAuthClient.MetricTokenShared, Name: "goauthclient_token_shared_total", Help: "Callers that joined an in-flight token fetch."},
	{ID: goAuthClient.MetricTokenCacheError, Name: "goauthclient_token_cache_error_total", Help: "Token cache backend failures."},
	{ID: goAuthClient.MetricTokensInvalidated, Name: "goauthclient_tokens_invalidated_total", Help: "Session token invalidations."},
	{ID: goAuthClient.MetricSyncResponse, Name: "goauthclient_sync_response_total", Help: "Responses applied to client state."},
	{ID: goAuthClient.MetricSyncIgnored, Name: "goauthclient_sync_ignored_total", Help: "Responses that carried no client state."},
	{ID: goAuthClient.MetricClientReplaced, Name: "goauthclient_client_replaced_total", Help: "Client snapshot replacements."},
	{ID: goAuthClient.MetricSessionSkew, Name: "goauthclient_session_skew_total", Help: "Completed flows whose created session was not active."},
	{ID: goAuthClient.MetricSignInCompleted, Name: "goauthclient_sign_in_completed_total", Help: "Published sign-in completions."},
	{ID: goAuthClient.MetricSignUpCompleted, Name: "goauthclient_sign_up_completed_total", Help: "Published sign-up completions."},
	{ID: goAuthClient.MetricDuplicateCompletion, Name: "goauthclient_duplicate_completion_total", Help: "Completions suppressed as already published."},
	{ID: goAuthClient.MetricSignOut, Name: "goauthclient_sign_out_total", Help: "Ended sessions."},
	{ID: goAuthClient.MetricAttestationPrepared, Name: "goauthclient_attestation_prepared_total", Help: "Successful attestation provider prepares."},
	{ID: goAuthClient.MetricAttestationFailure, Name: "goauthclient_attestation_failure_total", Help: "Failed attestation calls."},
	{ID: goAuthClient.MetricAttestationSuccess, Name: "goauthclient_attestation_success_total", Help: "Successful attestation assertions."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricTokenFetchLatency, Name: "goauthclient_token_fetch_latency_seconds", Help: "Token endpoint latency histogram."},
}

// StateDef exports one field of [goAuthClient.EngineState]. Monotonic fields
// are exported as counters, the rest as gauges.
type StateDef struct {
	Name      string
	Help      string
	Monotonic bool
	Value     func(goAuthClient.EngineState) int64
}

// StateDefs lists the engine state samples in export order.
var StateDefs = []StateDef{
	{
		Name:      "goauthclient_events_dropped_total",
		Help:      "Events dropped by full sink queues or slow subscribers.",
		Monotonic: true,
		Value:     func(s goAuthClient.EngineState) int64 { return int64(s.EventsDropped) },
	},
	{
		Name:  "goauthclient_token_fetches_in_flight",
		Help:  "Token endpoint calls currently running.",
		Value: func(s goAuthClient.EngineState) int64 { return int64(s.TokenFetchesInFlight) },
	},
	{
		Name:  "goauthclient_client_version",
		Help:  "Client snapshot version. Increments on every replacement.",
		Value: func(s goAuthClient.EngineState) int64 { return int64(s.ClientVersion) },
	},
	{
		Name: "goauthclient_attestation_prepared",
		Help: "1 when an attestation provider is prepared, else 0.",
		Value: func(s goAuthClient.EngineState) int64 {
			if s.AttestationPrepared {
				return 1
			}
			return 0
		},
	},
}

// HistogramBounds are the upper bounds of the latency buckets in seconds.
var HistogramBounds = [goAuthClient.LatencyBucketCount]string{
	"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf",
}

// BoundSuffix renders bound i for use inside an instrument name.
func BoundSuffix(i int) string {
	if i == len(HistogramBounds)-1 {
		return "inf"
	}
	return strings.ReplaceAll(HistogramBounds[i], ".", "_")
}

// Cumulative converts per-bucket counts to running totals. Missing buckets
// count as zero.
func Cumulative(raw []uint64) [goAuthClient.LatencyBucketCount]uint64 {
	var out [goAuthClient.LatencyBucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
