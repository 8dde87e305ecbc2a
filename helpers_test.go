package goAuthClient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-signing-key-0123456789abcdef")

type fakeSession struct {
	ID     string
	Status string
	Tasks  []string
}

// fakeServer is an in-memory identity server.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	tokenCalls  atomic.Int32
	tokenSerial atomic.Int64

	mu          sync.Mutex
	clientID    string
	sessions    []fakeSession
	activeID    string
	tokenTTL    time.Duration
	tokenGate   chan struct{}
	tokenStatus int
	tokenJWT    string
	syncBody    string
	deviceToken string
	headers     []http.Header
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{
		t:        t,
		clientID: "client_1",
		tokenTTL: time.Hour,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/client/sessions/{sid}/tokens", f.handleToken)
	mux.HandleFunc("POST /v1/client/sessions/{sid}/tokens/{tpl}", f.handleToken)
	mux.HandleFunc("GET /v1/client", f.handleClient)
	mux.HandleFunc("POST /v1/client/sessions/{sid}/end", f.handleEnd)
	mux.HandleFunc("DELETE /v1/client/sessions", f.handleSignOutAll)
	mux.HandleFunc("POST /v1/client/sessions/{sid}/touch", f.handleTouch)
	mux.HandleFunc("POST /v1/client/sign_ins", f.handleSync)
	mux.HandleFunc("POST /v1/client/verify", f.handleVerify)
	mux.HandleFunc("POST /v1/client/device_attestation/challenges", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"challenge": "challenge-1"})
	})

	f.srv = httptest.NewServer(f.record(mux))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) URL() string { return f.srv.URL }

func (f *fakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.headers = append(f.headers, r.Header.Clone())
		token := f.deviceToken
		f.mu.Unlock()
		if token != "" {
			w.Header().Set("Authorization", token)
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeServer) lastHeaders() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return nil
	}
	return f.headers[len(f.headers)-1]
}

func (f *fakeServer) setSessions(active string, sessions ...fakeSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeID = active
	f.sessions = sessions
}

func (f *fakeServer) set(fn func(f *fakeServer)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeServer) handleToken(w http.ResponseWriter, r *http.Request) {
	f.tokenCalls.Add(1)

	f.mu.Lock()
	gate := f.tokenGate
	status := f.tokenStatus
	raw := f.tokenJWT
	ttl := f.tokenTTL
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if status != 0 && status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"errors":[{"code":"server_error","message":"boom"}],"trace_id":"trace-1"}`)
		return
	}
	if raw == "" {
		raw = f.mint(r.PathValue("sid"), ttl)
	}
	writeJSON(w, map[string]any{"object": "token", "jwt": raw})
}

func (f *fakeServer) mint(sessionID string, ttl time.Duration) string {
	claims := gojwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
		"jti": fmt.Sprintf("tok-%d", f.tokenSerial.Add(1)),
	}
	raw, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		f.t.Errorf("sign token: %v", err)
	}
	return raw
}

func (f *fakeServer) clientObject() map[string]any {
	sessions := make([]map[string]any, 0, len(f.sessions))
	for _, s := range f.sessions {
		tasks := make([]map[string]any, 0, len(s.Tasks))
		for _, k := range s.Tasks {
			tasks = append(tasks, map[string]any{"key": k})
		}
		sessions = append(sessions, map[string]any{
			"object": "session",
			"id":     s.ID,
			"status": s.Status,
			"tasks":  tasks,
			"user":   map[string]any{"id": "user_" + s.ID},
		})
	}
	return map[string]any{
		"object":                 "client",
		"id":                     f.clientID,
		"sessions":               sessions,
		"last_active_session_id": f.activeID,
	}
}

func (f *fakeServer) handleClient(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, map[string]any{"response": f.clientObject()})
}

func (f *fakeServer) handleEnd(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.ID != sid {
			kept = append(kept, s)
		}
	}
	f.sessions = kept
	if f.activeID == sid {
		f.activeID = ""
	}
	writeJSON(w, map[string]any{"response": map[string]any{"object": "session", "id": sid, "status": "ended"}, "client": f.clientObject()})
}

func (f *fakeServer) handleSignOutAll(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = nil
	f.activeID = ""
	writeJSON(w, map[string]any{"response": f.clientObject()})
}

func (f *fakeServer) handleTouch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeID = r.PathValue("sid")
	writeJSON(w, map[string]any{"response": f.clientObject()})
}

func (f *fakeServer) handleSync(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	body := f.syncBody
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("token") == "" || r.PostForm.Get("client_id") == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"code":"form_param_missing","message":"missing"}]}`))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, map[string]any{"response": f.clientObject()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func engineTestConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.DeviceID = "device-1"
	cfg.Metrics.Enabled = true
	cfg.Events.SubscriberBuffer = 64
	return cfg
}

func buildTestEngine(t *testing.T, f *fakeServer, opts ...func(*Builder)) *Engine {
	t.Helper()
	b := New().WithConfig(engineTestConfig(f.URL()))
	for _, opt := range opts {
		opt(b)
	}
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

// signedInEngine returns an engine whose client carries one active session.
func signedInEngine(t *testing.T, f *fakeServer, opts ...func(*Builder)) *Engine {
	t.Helper()
	f.setSessions("sess_1", fakeSession{ID: "sess_1", Status: "active"})
	e := buildTestEngine(t, f, opts...)
	if _, err := e.RefreshClient(context.Background()); err != nil {
		t.Fatalf("RefreshClient: %v", err)
	}
	if _, ok := e.ActiveSession(); !ok {
		t.Fatalf("expected active session after refresh")
	}
	return e
}

// collect reads n events or fails after timeout.
func collect(t *testing.T, sub *Subscription, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				t.Fatalf("subscription closed after %d events, want %d", len(out), n)
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, want %d", len(out), n)
		}
	}
	return out
}

// expectNoEvent fails if sub delivers an event within a short window.
func expectNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %q", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
