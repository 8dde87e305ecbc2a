package goAuthClient

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID names one engine counter or the token fetch latency histogram.
type MetricID uint16

const (
	// MetricTokenCacheHit counts GetToken calls answered from the token cache.
	MetricTokenCacheHit MetricID = iota
	// MetricTokenCacheMiss counts token fetches that went to the network.
	MetricTokenCacheMiss
	// MetricTokenFetchSuccess counts successful token endpoint calls.
	MetricTokenFetchSuccess
	// MetricTokenFetchFailure counts failed token endpoint calls.
	MetricTokenFetchFailure
	// MetricTokenMalformed counts issued tokens without a usable expiry.
	MetricTokenMalformed
	// MetricTokenShared counts callers that received another caller's in-flight result.
	MetricTokenShared
	// MetricTokenCacheError counts token cache backend failures.
	MetricTokenCacheError
	// MetricTokensInvalidated counts InvalidateTokens calls.
	MetricTokensInvalidated
	// MetricSyncResponse counts response bodies that carried client state.
	MetricSyncResponse
	// MetricSyncIgnored counts response bodies that were not envelopes.
	MetricSyncIgnored
	// MetricClientReplaced counts client snapshot replacements.
	MetricClientReplaced
	// MetricSessionSkew counts completed flows whose session was not active.
	MetricSessionSkew
	// MetricSignInCompleted counts published sign-in completions.
	MetricSignInCompleted
	// MetricSignUpCompleted counts published sign-up completions.
	MetricSignUpCompleted
	// MetricDuplicateCompletion counts completions suppressed as already published.
	MetricDuplicateCompletion
	// MetricSignOut counts sign-outs.
	MetricSignOut
	// MetricAttestationPrepared counts successful attestation prepares.
	MetricAttestationPrepared
	// MetricAttestationFailure counts failed prepare, attest or assertion calls.
	MetricAttestationFailure
	// MetricAttestationSuccess counts successful assertions.
	MetricAttestationSuccess
	// MetricEventsDropped counts events dropped by the event bus.
	MetricEventsDropped
	// MetricTokenFetchLatency records token endpoint latency.
	MetricTokenFetchLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the token fetch latency
// buckets. Slower fetches land in the trailing overflow bucket.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// LatencyBucketCount is the number of token fetch latency buckets, overflow
// included.
const LatencyBucketCount = len(latencyBounds) + 1

// counter owns a cache line. GetToken bumps several ids per call from many
// goroutines at once.
type counter struct {
	n atomic.Uint64
	_ [56]byte
}

type latencyHistogram struct {
	buckets [LatencyBucketCount]atomic.Uint64
	sum     atomic.Int64
}

func (h *latencyHistogram) observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	i := sort.Search(len(latencyBounds), func(i int) bool { return d <= latencyBounds[i] })
	h.buckets[i].Add(1)
	h.sum.Add(int64(d))
}

// Metrics holds the engine's in-process counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	counting bool
	timing   bool
	counters [metricIDCount]counter
	latency  latencyHistogram
}

// EngineState is engine state sampled when a snapshot is taken. It is filled
// by Engine.MetricsSnapshot even when counters are disabled.
type EngineState struct {
	// TokenFetchesInFlight is the number of token endpoint calls running now.
	TokenFetchesInFlight int
	// ClientVersion increments on every client replacement.
	ClientVersion uint64
	// AttestationPrepared reports whether AttestDevice can issue tokens.
	AttestationPrepared bool
	// EventsDropped totals events lost to full sink queues or slow subscribers.
	EventsDropped uint64
}

// MetricsSnapshot is a point-in-time copy of engine metrics.
type MetricsSnapshot struct {
	// Counters is empty when metrics are disabled.
	Counters map[MetricID]uint64
	// Histograms holds per-bucket (not cumulative) counts, only when latency
	// histograms are enabled.
	Histograms map[MetricID][]uint64
	// LatencySum totals every observed token fetch latency.
	LatencySum time.Duration
	State      EngineState
}

func emptySnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
}

// NewMetrics returns counters configured by cfg. Latency histograms are only
// recorded when counters are enabled too.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		counting: cfg.Enabled,
		timing:   cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.counting
}

// LatencyEnabled reports whether token fetch latency is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.timing
}

// Inc adds one to the counter id. Unknown ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount {
		return
	}
	m.counters[id].n.Add(1)
}

// Observe records d into the latency histogram. Only MetricTokenFetchLatency
// carries a histogram; other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricTokenFetchLatency {
		return
	}
	m.latency.observe(d)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].n.Load()
}

// Snapshot copies the counters and histogram. State is left zero; the engine
// fills it.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := emptySnapshot()
	if !m.Enabled() {
		return s
	}

	for id := range metricIDCount {
		if id == MetricTokenFetchLatency {
			continue
		}
		s.Counters[id] = m.counters[id].n.Load()
	}

	if m.timing {
		buckets := make([]uint64, LatencyBucketCount)
		for i := range buckets {
			buckets[i] = m.latency.buckets[i].Load()
		}
		s.Histograms[MetricTokenFetchLatency] = buckets
		s.LatencySum = time.Duration(m.latency.sum.Load())
	}
	return s
}
