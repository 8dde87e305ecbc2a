//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis cluster: %v", err)
				}
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		modes = append(modes, redisMode{
			name: "sentinel",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:    master,
					SentinelAddrs: splitAddrs(addrs),
				})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis sentinel: %v", err)
				}
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	return modes
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			addrs = append(addrs, part)
		}
	}
	return addrs
}

// tokenServer mints a fresh JWT for every token request and counts them.
type tokenServer struct {
	srv    *httptest.Server
	calls  atomic.Int32
	serial atomic.Int64
	delay  time.Duration
}

func newTokenServer(t *testing.T, delay time.Duration) *tokenServer {
	t.Helper()
	ts := &tokenServer{delay: delay}
	mux := http.NewServeMux()
	handler := func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if ts.delay > 0 {
			time.Sleep(ts.delay)
		}
		claims := gojwt.MapClaims{
			"sid": r.PathValue("sid"),
			"exp": time.Now().Add(time.Hour).Unix(),
			"jti": fmt.Sprintf("tok-%d", ts.serial.Add(1)),
		}
		raw, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("integration-key-0123456789abcdef"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "token", "jwt": raw})
	}
	mux.HandleFunc("POST /v1/client/sessions/{sid}/tokens", handler)
	mux.HandleFunc("POST /v1/client/sessions/{sid}/tokens/{tpl}", handler)
	ts.srv = httptest.NewServer(mux)
	t.Cleanup(ts.srv.Close)
	return ts
}

// newSharedEngine builds an engine on the redis backend and seeds it with one
// active session.
func newSharedEngine(t *testing.T, rdb redis.UniversalClient, baseURL, prefix, sessionID string) *goAuthClient.Engine {
	t.Helper()

	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Cache.Backend = goAuthClient.CacheRedis
	cfg.Cache.RedisPrefix = prefix

	engine, err := goAuthClient.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	body := fmt.Sprintf(`{"client":{"id":"client_%s","sessions":[{"id":%q,"status":"active"}],"last_active_session_id":%q}}`, prefix, sessionID, sessionID)
	engine.SyncResponse(context.Background(), []byte(body))
	if _, ok := engine.ActiveSession(); !ok {
		t.Fatalf("expected seeded active session")
	}
	return engine
}
