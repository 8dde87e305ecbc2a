package goAuthClient

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	internalflows "github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/tokencache"
)

// GetToken returns a session token for the active session.
//
// A cached token is returned while it outlives the expiration buffer.
// Concurrent calls for the same session and template share one network
// request. Errors: ErrEngineNotReady, ErrNoActiveSession, ErrSessionNotUsable,
// ErrInvalidTokenOptions, ErrTokenFetchFailed (wrapping *APIError for HTTP
// failures) and ErrTokenMalformed.
func (e *Engine) GetToken(ctx context.Context, opts GetTokenOptions) (Token, error) {
	if !e.ready() {
		return Token{}, ErrEngineNotReady
	}
	sess, _ := e.state.ActiveSession()
	return e.GetTokenForSession(ctx, sess, opts)
}

// GetTokenForSession is GetToken for an explicit session of the client.
func (e *Engine) GetTokenForSession(ctx context.Context, sess *Session, opts GetTokenOptions) (Token, error) {
	if !e.ready() {
		return Token{}, ErrEngineNotReady
	}
	if sess == nil || sess.ID == "" {
		return Token{}, ErrNoActiveSession
	}
	if !sess.Usable() {
		return Token{}, ErrSessionNotUsable
	}
	if opts.ExpirationBuffer < 0 {
		return Token{}, ErrInvalidTokenOptions
	}
	buffer := opts.ExpirationBuffer
	if buffer == 0 {
		buffer = e.config.Token.ExpirationBuffer
	}

	req := internalflows.TokenRequest{
		Key:       tokencache.Key(sess.ID, opts.Template),
		SkipCache: opts.SkipCache,
		Buffer:    buffer,
	}

	res, shared, err := e.inflight.Do(ctx, req.Key.String(), func(ctx context.Context) (internalflows.TokenResult, error) {
		return e.flows.FetchToken(ctx, req), nil
	})
	if err != nil {
		e.metricInc(MetricTokenFetchFailure)
		return Token{}, fmt.Errorf("%w: %w", ErrTokenFetchFailed, err)
	}
	if shared {
		e.metricInc(MetricTokenShared)
	}

	switch res.Failure {
	case internalflows.TokenFailureNone:
		if res.FromCache {
			e.metricInc(MetricTokenCacheHit)
		} else {
			e.metricInc(MetricTokenCacheMiss)
		}
	case internalflows.TokenFailureMalformed:
		return Token{}, fmt.Errorf("%w: %w", ErrTokenMalformed, res.Err)
	default:
		return Token{}, fmt.Errorf("%w: %w", ErrTokenFetchFailed, res.Err)
	}
	return res.Token, nil
}

// InvalidateTokens drops every cached template of sessionID. An empty
// sessionID means the active session.
func (e *Engine) InvalidateTokens(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		sess, ok := e.state.ActiveSession()
		if !ok {
			return ErrNoActiveSession
		}
		sessionID = sess.ID
	}
	if err := e.tokens.DeleteSession(ctx, sessionID); err != nil {
		e.metricInc(MetricTokenCacheError)
		return err
	}
	e.metricInc(MetricTokensInvalidated)
	return nil
}

func (e *Engine) invalidateSession(ctx context.Context, sessionID string) {
	if err := e.tokens.DeleteSession(ctx, sessionID); err != nil {
		e.metricInc(MetricTokenCacheError)
		e.logger.Warn("token invalidation failed", "session_id", sessionID, "error", err)
		return
	}
	e.metricInc(MetricTokensInvalidated)
}

func (e *Engine) tokenFlowDeps() internalflows.TokenDeps {
	return internalflows.TokenDeps{
		Cache:       countingCache{Cache: e.tokens, engine: e},
		FetchJWT:    e.fetchJWT,
		ParseExpiry: e.parseExpiry,
		Now:         e.now,
		Warn:        e.logger.Warn,
	}
}

func (e *Engine) fetchJWT(ctx context.Context, sessionID, template string) (string, error) {
	start := time.Now()
	raw, err := e.api.CreateSessionToken(ctx, sessionID, template, api.SessionTokenParams{})
	if e.metrics != nil {
		e.metrics.Observe(MetricTokenFetchLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricTokenFetchFailure)
		return "", err
	}
	e.metricInc(MetricTokenFetchSuccess)
	return raw, nil
}

func (e *Engine) parseExpiry(raw string) (time.Time, error) {
	if e.verifier == nil {
		exp, err := jwt.ParseExpiry(raw)
		if err != nil {
			e.metricInc(MetricTokenMalformed)
		}
		return exp, err
	}
	claims, err := e.verifier.Verify(raw)
	if err != nil {
		e.metricInc(MetricTokenMalformed)
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

// countingCache counts backend errors of the wrapped cache.
type countingCache struct {
	tokencache.Cache
	engine *Engine
}

func (c countingCache) Get(ctx context.Context, key tokencache.CacheKey) (Token, bool, error) {
	tok, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.engine.metricInc(MetricTokenCacheError)
	}
	return tok, ok, err
}

func (c countingCache) Set(ctx context.Context, key tokencache.CacheKey, token Token) error {
	err := c.Cache.Set(ctx, key, token)
	if err != nil {
		c.engine.metricInc(MetricTokenCacheError)
	}
	return err
}
