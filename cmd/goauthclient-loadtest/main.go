package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

var signingKey = []byte("loadtest-signing-key")

// tokenServer mints session tokens and counts how many it issued.
type tokenServer struct {
	issued  atomic.Int64
	latency time.Duration
	ttl     time.Duration
}

func (s *tokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.issued.Add(1)
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	claims := gojwt.MapClaims{
		"sid": r.PathValue("sid"),
		"exp": time.Now().Add(s.ttl).Unix(),
		"jti": fmt.Sprintf("lt-%d", s.issued.Load()),
	}
	raw, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"object": "token", "jwt": raw})
}

func main() {
	var (
		sessions    = flag.Int("sessions", 64, "number of sessions on the client")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "GetToken calls per phase")
		rps         = flag.Float64("rps", 0, "request pacing in calls per second; 0 disables pacing")
		latency     = flag.Duration("server-latency", 20*time.Millisecond, "token endpoint latency")
		ttl         = flag.Duration("token-ttl", time.Hour, "issued token lifetime")
		backend     = flag.String("backend", "memory", "token cache backend: memory or redis")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	server := &tokenServer{latency: *latency, ttl: *ttl}
	mux := http.NewServeMux()
	mux.Handle("POST /v1/client/sessions/{sid}/tokens", server)
	mux.Handle("POST /v1/client/sessions/{sid}/tokens/{tpl}", server)
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()

	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = httpServer.URL
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	builder := goAuthClient.New().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if *backend == string(goAuthClient.CacheRedis) {
		client, cleanup, err := redisClient(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		cfg.Cache.Backend = goAuthClient.CacheRedis
		builder.WithRedis(client)
	}

	engine, err := builder.WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	engine.SyncResponse(ctx, seedClient(*sessions))
	client := engine.Client()
	fmt.Printf("client seeded with %d sessions\n", len(client.Sessions))

	var limiter *rate.Limiter
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), *concurrency)
	}

	before := server.issued.Load()
	cold := runPhase(ctx, engine, limiter, client, *ops, *concurrency, goAuthClient.GetTokenOptions{})
	coldIssued := server.issued.Load() - before

	before = server.issued.Load()
	skip := runPhase(ctx, engine, limiter, client, *ops/10+1, *concurrency, goAuthClient.GetTokenOptions{SkipCache: true})
	skipIssued := server.issued.Load() - before

	snap := engine.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats("cached", cold)
	fmt.Printf("cached: tokens issued=%d (sessions=%d)\n", coldIssued, *sessions)
	printStats("skip-cache", skip)
	fmt.Printf("skip-cache: tokens issued=%d shared=%d\n", skipIssued, snap.Counters[goAuthClient.MetricTokenShared])
	fmt.Printf("cache hits=%d misses=%d fetch failures=%d\n",
		snap.Counters[goAuthClient.MetricTokenCacheHit],
		snap.Counters[goAuthClient.MetricTokenCacheMiss],
		snap.Counters[goAuthClient.MetricTokenFetchFailure],
	)
}

func redisClient(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func seedClient(n int) []byte {
	type sess struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	sessions := make([]sess, n)
	for i := range sessions {
		sessions[i] = sess{ID: fmt.Sprintf("sess_%d", i), Status: "active"}
	}
	body, _ := json.Marshal(map[string]any{
		"client": map[string]any{
			"id":                     "client_loadtest",
			"sessions":               sessions,
			"last_active_session_id": sessions[0].ID,
		},
	})
	return body
}

func runPhase(ctx context.Context, engine *goAuthClient.Engine, limiter *rate.Limiter, client *goAuthClient.Client, ops, concurrency int, opts goAuthClient.GetTokenOptions) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						atomic.AddInt64(&failures, 1)
						continue
					}
				}
				sess := &client.Sessions[r.Intn(len(client.Sessions))]
				t0 := time.Now()
				_, err := engine.GetTokenForSession(ctx, sess, opts)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
