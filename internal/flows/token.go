package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goAuthClient/tokencache"
)

// TokenFailureKind classifies token flow failures for root-level mapping.
type TokenFailureKind int

const (
	TokenFailureNone TokenFailureKind = iota
	TokenFailureFetch
	TokenFailureMalformed
)

// TokenResult carries either a token or failure metadata.
type TokenResult struct {
	Failure   TokenFailureKind
	Err       error
	Key       tokencache.CacheKey
	Token     tokencache.Token
	FromCache bool
}

// TokenRequest describes one fetch.
type TokenRequest struct {
	Key       tokencache.CacheKey
	SkipCache bool
	Buffer    time.Duration
}

// TokenDeps captures token flow dependencies.
type TokenDeps struct {
	Cache       tokencache.Cache
	FetchJWT    func(ctx context.Context, sessionID, template string) (string, error)
	ParseExpiry func(string) (time.Time, error)
	Now         func() time.Time
	Warn        func(string, ...any)
}

// RunFetchToken returns a cached token that outlives req.Buffer, or fetches,
// parses and caches a new one. Failures never write to the cache.
func RunFetchToken(ctx context.Context, req TokenRequest, deps TokenDeps) TokenResult {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	if !req.SkipCache && deps.Cache != nil {
		cached, ok, err := deps.Cache.Get(ctx, req.Key)
		switch {
		case err != nil:
			warn(deps.Warn, "token cache read failed", "key", req.Key.String(), "error", err)
		case ok && cached.ValidFor(now(), req.Buffer):
			return TokenResult{Key: req.Key, Token: cached, FromCache: true}
		}
	}

	raw, err := deps.FetchJWT(ctx, req.Key.SessionID, req.Key.Template)
	if err != nil {
		return TokenResult{Failure: TokenFailureFetch, Err: err, Key: req.Key}
	}

	exp, err := deps.ParseExpiry(raw)
	if err != nil {
		return TokenResult{Failure: TokenFailureMalformed, Err: err, Key: req.Key}
	}

	token := tokencache.Token{JWT: raw, ExpiresAt: exp}
	if deps.Cache != nil {
		if err := deps.Cache.Set(ctx, req.Key, token); err != nil {
			warn(deps.Warn, "token cache write failed", "key", req.Key.String(), "error", err)
		}
	}

	return TokenResult{Key: req.Key, Token: token}
}

func warn(fn func(string, ...any), msg string, args ...any) {
	if fn != nil {
		fn(msg, args...)
	}
}
