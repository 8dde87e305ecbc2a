package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/middleware"
)

// RefreshClient fetches the client from the server and installs it.
func (e *Engine) RefreshClient(ctx context.Context) (*Client, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	next, err := e.api.GetClient(middleware.WithoutSync(ctx))
	if err != nil {
		return nil, err
	}
	e.applyClient(ctx, next)
	return next, nil
}

// SetActive makes sessionID the client's active session. organizationID may
// be empty.
func (e *Engine) SetActive(ctx context.Context, sessionID, organizationID string) (*Client, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" {
		return nil, ErrNoActiveSession
	}
	next, err := e.api.SetActiveSession(middleware.WithoutSync(ctx), sessionID, api.SetActiveParams{OrganizationID: organizationID})
	if err != nil {
		return nil, err
	}
	e.applyClient(ctx, next)
	return next, nil
}

// SignOut ends sessionID, or every session of the client when sessionID is
// empty. Cached tokens of the ended sessions are dropped and one
// EventSignedOut is published per session.
func (e *Engine) SignOut(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	var (
		ended []string
		next  *Client
		err   error
	)
	quiet := middleware.WithoutSync(ctx)
	if sessionID == "" {
		ended = e.state.Current().SessionIDs()
		next, err = e.api.SignOutAll(quiet)
	} else {
		ended = []string{sessionID}
		next, err = e.api.EndSession(quiet, sessionID)
	}
	if err != nil {
		return err
	}

	e.applyClient(ctx, next)
	for _, id := range ended {
		e.invalidateSession(ctx, id)
		e.metricInc(MetricSignOut)
		e.publish(ctx, Event{Kind: EventSignedOut, SessionID: id})
	}
	return nil
}
