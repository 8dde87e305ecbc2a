package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

type fakeSource struct {
	snapshot goAuthClient.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() goAuthClient.MetricsSnapshot { return f.snapshot }

func TestRenderOnlyStateWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters:   map[goAuthClient.MetricID]uint64{},
			Histograms: map[goAuthClient.MetricID][]uint64{},
			State:      goAuthClient.EngineState{ClientVersion: 3},
		},
	})

	out := exp.Render()
	if strings.Contains(out, "goauthclient_token_cache_hit_total") {
		t.Fatalf("expected no counters for disabled metrics, got:\n%s", out)
	}
	if strings.Contains(out, "goauthclient_token_fetch_latency_seconds") {
		t.Fatalf("expected no histogram for disabled metrics, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_client_version 3") {
		t.Fatalf("expected client version gauge, got:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE goauthclient_token_fetches_in_flight gauge") {
		t.Fatalf("expected in-flight gauge family, got:\n%s", out)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters: map[goAuthClient.MetricID]uint64{
				goAuthClient.MetricTokenCacheHit: 7,
			},
			Histograms: map[goAuthClient.MetricID][]uint64{
				goAuthClient.MetricTokenFetchLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
			LatencySum: 250 * time.Millisecond,
			State: goAuthClient.EngineState{
				EventsDropped:        2,
				TokenFetchesInFlight: 1,
				AttestationPrepared:  true,
			},
		},
	})

	out := exp.Render()
	if !strings.Contains(out, "goauthclient_token_cache_hit_total 7") {
		t.Fatalf("expected cache hit counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_token_fetch_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_token_fetch_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_token_fetch_latency_seconds_sum 0.25") {
		t.Fatalf("expected latency sum in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_token_fetch_latency_seconds_count 36") {
		t.Fatalf("expected histogram count in output, got:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE goauthclient_events_dropped_total counter\ngoauthclient_events_dropped_total 2") {
		t.Fatalf("expected events dropped counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_token_fetches_in_flight 1") {
		t.Fatalf("expected in-flight gauge in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_attestation_prepared 1") {
		t.Fatalf("expected attestation gauge in output, got:\n%s", out)
	}
}

func TestRenderReadsEngineState(t *testing.T) {
	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = "https://auth.example.com"
	engine, err := goAuthClient.New().WithConfig(cfg).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	engine.SyncResponse(context.Background(), []byte(`{"client":{"id":"client_1","sessions":[]}}`))

	out := NewPrometheusExporter(engine).Render()
	want := "goauthclient_client_version " + strconv.FormatUint(engine.ClientVersion(), 10)
	if engine.ClientVersion() == 0 || !strings.Contains(out, want) {
		t.Fatalf("expected %q in output, got:\n%s", want, out)
	}
	if !strings.Contains(out, "goauthclient_sync_response_total 1") {
		t.Fatalf("expected sync response counter, got:\n%s", out)
	}
	if !strings.Contains(out, "goauthclient_attestation_prepared 0") {
		t.Fatalf("expected attestation not prepared, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters:   map[goAuthClient.MetricID]uint64{goAuthClient.MetricTokenCacheHit: 1},
			Histograms: map[goAuthClient.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters: map[goAuthClient.MetricID]uint64{
				goAuthClient.MetricTokenCacheHit:     1000,
				goAuthClient.MetricTokenCacheMiss:    40,
				goAuthClient.MetricTokenFetchSuccess: 38,
				goAuthClient.MetricTokenFetchFailure: 2,
				goAuthClient.MetricClientReplaced:    120,
				goAuthClient.MetricSignInCompleted:   3,
			},
			Histograms: map[goAuthClient.MetricID][]uint64{
				goAuthClient.MetricTokenFetchLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
