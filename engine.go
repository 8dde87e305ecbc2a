package goAuthClient

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/attestation"
	"github.com/MrEthical07/goAuthClient/authflow"
	"github.com/MrEthical07/goAuthClient/internal/flight"
	internalflows "github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/tokencache"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Engine owns one device's authentication state.
//
// Engine instances are created by Builder.Build, are safe for concurrent use
// and must be closed with Close to stop the event dispatcher.
type Engine struct {
	config       Config
	logger       *slog.Logger
	state        *session.StateStore
	tokens       tokencache.Cache
	inflight     *flight.Group[internalflows.TokenResult]
	api          *api.Client
	httpClient   *http.Client
	attestation  *attestation.Coordinator
	events       *EventBus
	metrics      *Metrics
	published    *lru.Cache[string, struct{}]
	deviceTokens DeviceTokenStore
	deviceID     string
	verifier     *jwt.Verifier
	flows        internalflows.Service
	now          func() time.Time

	closed atomic.Bool
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized() && !e.closed.Load()
}

// Client returns the current client snapshot. It is never nil and must be
// treated as read-only.
func (e *Engine) Client() *Client {
	if e == nil || e.state == nil {
		return &Client{}
	}
	return e.state.Current()
}

// ClientVersion increments on every client replacement.
func (e *Engine) ClientVersion() uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	return e.state.Version()
}

// ActiveSession returns the client's last active session.
func (e *Engine) ActiveSession() (*Session, bool) {
	if e == nil || e.state == nil {
		return nil, false
	}
	return e.state.ActiveSession()
}

// User returns the user of the active session, or nil.
func (e *Engine) User() *User {
	if e == nil || e.state == nil {
		return nil
	}
	return e.state.User()
}

// DeviceID is sent as X-Device-Id on every request.
func (e *Engine) DeviceID() string {
	if e == nil {
		return ""
	}
	return e.deviceID
}

// NextStep reports what the UI should present next: the pending sign-in step,
// else the pending sign-up step, else StepDone with an active session and
// StepCollectIdentifier without one.
func (e *Engine) NextStep() Step {
	if e == nil || e.state == nil {
		return authflow.StepUnknown
	}
	if si := e.state.SignIn(); si != nil && !si.Status.Terminal() {
		return si.NextStep()
	}
	if su := e.state.SignUp(); su != nil && !su.Status.Terminal() {
		return su.NextStep()
	}
	if _, ok := e.state.ActiveSession(); ok {
		return authflow.StepDone
	}
	return authflow.StepCollectIdentifier
}

// HTTPClient returns the client carrying the engine middleware. Responses to
// requests sent through it update client state unless the request context
// was wrapped with WithoutSync.
func (e *Engine) HTTPClient() *http.Client {
	if e == nil {
		return nil
	}
	return e.httpClient
}

// Subscribe registers an event subscriber. buffer <= 0 uses
// Config.Events.SubscriberBuffer.
func (e *Engine) Subscribe(buffer int) *Subscription {
	if e == nil || e.events == nil {
		return nil
	}
	return e.events.Subscribe(buffer)
}

// Close stops the event dispatcher after draining queued events. Later token
// requests fail with ErrEngineNotReady.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	if e.events != nil {
		e.events.Close()
	}
}

// EventsDropped returns the number of events dropped by the bus or by slow
// subscribers.
func (e *Engine) EventsDropped() uint64 {
	if e == nil || e.events == nil {
		return 0
	}
	return e.events.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of engine metrics. State is
// sampled on every call; counters are empty unless metrics are enabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return emptySnapshot()
	}
	s := e.metrics.Snapshot()
	s.State = EngineState{
		TokenFetchesInFlight: e.TokenFetchesInFlight(),
		ClientVersion:        e.ClientVersion(),
		AttestationPrepared:  e.attestation != nil && e.attestation.Prepared(),
		EventsDropped:        e.EventsDropped(),
	}
	return s
}

// TokenFetchesInFlight returns the number of token endpoint calls currently
// running. Callers sharing one fetch count once.
func (e *Engine) TokenFetchesInFlight() int {
	if e == nil || e.inflight == nil {
		return 0
	}
	return e.inflight.Len()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	for range n {
		e.metricInc(id)
	}
}

func (e *Engine) publish(ctx context.Context, event Event) {
	if e.events == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = e.now()
	}
	if event.ClientID == "" {
		event.ClientID = e.state.Current().ID
	}
	e.events.Publish(ctx, event)
}
