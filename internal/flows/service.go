package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Token.FetchJWT != nil && s.deps.Token.ParseExpiry != nil
}

func (s Service) FetchToken(ctx context.Context, req TokenRequest) TokenResult {
	return RunFetchToken(ctx, req, s.deps.Token)
}

func (s Service) SyncResponse(ctx context.Context, body []byte) SyncResult {
	return RunResponseSync(ctx, body, s.deps.Sync)
}
