package flows

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/MrEthical07/goAuthClient/authflow"
	"github.com/MrEthical07/goAuthClient/session"
)

// Object types carried in the envelope "response" field.
const (
	ObjectClient  = "client"
	ObjectSignIn  = "sign_in_attempt"
	ObjectSignUp  = "sign_up_attempt"
	ObjectSession = "session"
)

// Envelope is the decoded shape of an identity server response body.
type Envelope struct {
	Client *session.Client
	SignIn *authflow.SignIn
	SignUp *authflow.SignUp
}

type rawEnvelope struct {
	Response json.RawMessage `json:"response"`
	Client   json.RawMessage `json:"client"`
	SignIn   json.RawMessage `json:"sign_in"`
	SignUp   json.RawMessage `json:"sign_up"`
}

type objectHeader struct {
	Object string `json:"object"`
}

// DecodeEnvelope extracts the client, sign-in and sign-up carried by body.
// Sign-in and sign-up are taken from "response" first, then the top level,
// then the client. ok is false for non-JSON bodies, non-object bodies and
// bodies carrying none of the three.
func DecodeEnvelope(body []byte) (Envelope, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Envelope{}, false
	}

	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, false
	}

	var env Envelope
	if present(raw.Response) {
		var head objectHeader
		if err := json.Unmarshal(raw.Response, &head); err == nil {
			switch head.Object {
			case ObjectClient:
				env.Client = decodeObject[session.Client](raw.Response)
			case ObjectSignIn:
				env.SignIn = decodeObject[authflow.SignIn](raw.Response)
			case ObjectSignUp:
				env.SignUp = decodeObject[authflow.SignUp](raw.Response)
			}
		}
	}
	if env.Client == nil && present(raw.Client) {
		env.Client = decodeObject[session.Client](raw.Client)
	}
	if env.SignIn == nil && present(raw.SignIn) {
		env.SignIn = decodeObject[authflow.SignIn](raw.SignIn)
	}
	if env.SignUp == nil && present(raw.SignUp) {
		env.SignUp = decodeObject[authflow.SignUp](raw.SignUp)
	}
	if env.Client != nil {
		if env.SignIn == nil {
			env.SignIn = env.Client.SignIn
		}
		if env.SignUp == nil {
			env.SignUp = env.Client.SignUp
		}
	}

	if env.Client == nil && env.SignIn == nil && env.SignUp == nil {
		return Envelope{}, false
	}
	return env, true
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func decodeObject[T any](raw json.RawMessage) *T {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// SyncEventKind names what RunResponseSync observed.
type SyncEventKind int

const (
	SyncSignInCompleted SyncEventKind = iota + 1
	SyncSignUpCompleted
	SyncSessionSkew
	SyncClientReplaced
)

// SyncEvent is handed to SyncDeps.Publish.
type SyncEvent struct {
	Kind          SyncEventKind
	SignIn        *authflow.SignIn
	SignUp        *authflow.SignUp
	SessionID     string
	SessionStatus session.Status
}

// SyncResult summarizes one sync for metrics.
type SyncResult struct {
	Decoded         bool
	ClientReplaced  bool
	RemovedSessions []string
	Skews           int
	Published       int
	Duplicates      int
}

// SyncDeps captures response sync dependencies.
type SyncDeps struct {
	CurrentClient func() *session.Client
	ReplaceClient func(*session.Client) *session.Client
	// InvalidateSession drops cached tokens for a session that left the client.
	InvalidateSession func(ctx context.Context, sessionID string)
	// FirstPublish records a completed object id and reports whether it was
	// not seen before.
	FirstPublish func(kind SyncEventKind, id string) bool
	Publish      func(ctx context.Context, ev SyncEvent)
	Warn         func(string, ...any)
}

// RunResponseSync applies one response body to client state and publishes
// the lifecycle events it implies. Bodies that do not decode are ignored.
func RunResponseSync(ctx context.Context, body []byte, deps SyncDeps) SyncResult {
	env, ok := DecodeEnvelope(body)
	if !ok {
		return SyncResult{}
	}
	res := SyncResult{Decoded: true}

	var prev *session.Client
	if deps.CurrentClient != nil {
		prev = deps.CurrentClient()
	}
	client := prev
	if env.Client != nil && deps.ReplaceClient != nil {
		prev = deps.ReplaceClient(env.Client)
		client = env.Client
		res.ClientReplaced = true
		publish(ctx, deps, SyncEvent{Kind: SyncClientReplaced})

		res.RemovedSessions = session.RemovedSessionIDs(prev, env.Client)
		if deps.InvalidateSession != nil {
			for _, id := range res.RemovedSessions {
				deps.InvalidateSession(ctx, id)
			}
		}
	}

	if in := env.SignIn; in != nil {
		if before := priorSignIn(prev, in.ID); before != nil && !authflow.CanTransition(before.Status, in.Status) {
			warn(deps.Warn, "unexpected sign-in status transition", "sign_in_id", in.ID, "from", before.Status, "to", in.Status)
		}
		if in.Complete() {
			completed(ctx, deps, &res, client, "sign_in", in.ID, in.CreatedSessionID,
				SyncEvent{Kind: SyncSignInCompleted, SignIn: in, SessionID: in.CreatedSessionID})
		}
	}

	if up := env.SignUp; up != nil && up.Complete() {
		completed(ctx, deps, &res, client, "sign_up", up.ID, up.CreatedSessionID,
			SyncEvent{Kind: SyncSignUpCompleted, SignUp: up, SessionID: up.CreatedSessionID})
	}

	return res
}

// completed publishes ev once per flow id. The skew check runs only for the
// first sighting, so a replayed envelope is silent.
func completed(ctx context.Context, deps SyncDeps, res *SyncResult, client *session.Client, flow, flowID, sessionID string, ev SyncEvent) {
	if !firstPublish(deps, ev.Kind, flowID) {
		res.Duplicates++
		return
	}
	if checkSkew(ctx, deps, client, sessionID, flow, flowID) {
		res.Skews++
	}
	publish(ctx, deps, ev)
	res.Published++
}

// checkSkew reports a completed flow whose created session is missing from the
// client or in a status other than active or pending. It only signals.
func checkSkew(ctx context.Context, deps SyncDeps, client *session.Client, sessionID, flow, flowID string) bool {
	if sessionID == "" || client == nil {
		return false
	}
	status := session.StatusUnknown
	if sess, ok := client.SessionByID(sessionID); ok {
		status = sess.Status
	}
	if status == session.StatusActive || status == session.StatusPending {
		return false
	}

	warn(deps.Warn, "flow complete but session not active",
		"flow", flow, "flow_id", flowID, "session_id", sessionID, "session_status", status)
	publish(ctx, deps, SyncEvent{Kind: SyncSessionSkew, SessionID: sessionID, SessionStatus: status})
	return true
}

func priorSignIn(prev *session.Client, id string) *authflow.SignIn {
	if prev == nil || prev.SignIn == nil || id == "" || prev.SignIn.ID != id {
		return nil
	}
	return prev.SignIn
}

func firstPublish(deps SyncDeps, kind SyncEventKind, id string) bool {
	if deps.FirstPublish == nil || id == "" {
		return true
	}
	return deps.FirstPublish(kind, id)
}

func publish(ctx context.Context, deps SyncDeps, ev SyncEvent) {
	if deps.Publish != nil {
		deps.Publish(ctx, ev)
	}
}
