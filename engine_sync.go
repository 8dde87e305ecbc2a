package goAuthClient

import (
	"context"
	"strconv"

	internalflows "github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
)

// SyncResponse applies a server response body to client state and publishes
// the lifecycle events it implies. Bodies that are not JSON envelopes are
// ignored. It never fails; the HTTP middleware calls it for every JSON
// response.
func (e *Engine) SyncResponse(ctx context.Context, body []byte) {
	if !e.ready() {
		return
	}
	e.syncResponse(ctx, body)
}

func (e *Engine) syncResponse(ctx context.Context, body []byte) internalflows.SyncResult {
	res := e.flows.SyncResponse(ctx, body)
	if !res.Decoded {
		e.metricInc(MetricSyncIgnored)
		return res
	}
	e.metricInc(MetricSyncResponse)
	if res.ClientReplaced {
		e.metricInc(MetricClientReplaced)
	}
	e.metricAdd(MetricSessionSkew, res.Skews)
	e.metricAdd(MetricDuplicateCompletion, res.Duplicates)
	return res
}

func (e *Engine) syncFlowDeps() internalflows.SyncDeps {
	return internalflows.SyncDeps{
		CurrentClient:     e.state.Current,
		ReplaceClient:     e.state.Replace,
		InvalidateSession: e.invalidateSession,
		FirstPublish:      e.firstPublish,
		Publish:           e.publishSyncEvent,
		Warn:              e.logger.Warn,
	}
}

func (e *Engine) firstPublish(kind internalflows.SyncEventKind, id string) bool {
	seen, _ := e.published.ContainsOrAdd(strconv.Itoa(int(kind))+":"+id, struct{}{})
	return !seen
}

func (e *Engine) publishSyncEvent(ctx context.Context, ev internalflows.SyncEvent) {
	event := Event{
		SessionID: ev.SessionID,
		SignIn:    ev.SignIn,
		SignUp:    ev.SignUp,
	}
	switch ev.Kind {
	case internalflows.SyncSignInCompleted:
		event.Kind = EventSignInCompleted
		e.metricInc(MetricSignInCompleted)
	case internalflows.SyncSignUpCompleted:
		event.Kind = EventSignUpCompleted
		e.metricInc(MetricSignUpCompleted)
	case internalflows.SyncSessionSkew:
		event.Kind = EventSessionStatusSkew
		event.SessionStatus = string(ev.SessionStatus)
		event.Message = "flow complete but session not active"
	case internalflows.SyncClientReplaced:
		event.Kind = EventClientReplaced
	default:
		return
	}
	e.publish(ctx, event)
}

// applyClient installs a client returned by an explicit API call. It mirrors
// the client half of response sync for calls made WithoutSync.
func (e *Engine) applyClient(ctx context.Context, next *session.Client) *session.Client {
	if next == nil {
		return e.state.Current()
	}
	prev := e.state.Replace(next)
	e.metricInc(MetricClientReplaced)
	e.publish(ctx, Event{Kind: EventClientReplaced, ClientID: next.ID})
	for _, id := range session.RemovedSessionIDs(prev, next) {
		e.invalidateSession(ctx, id)
	}
	return prev
}

// assertionStore routes attestation results through applyClient.
type assertionStore struct {
	engine *Engine
}

func (s assertionStore) Replace(next *session.Client) *session.Client {
	return s.engine.applyClient(context.Background(), next)
}
