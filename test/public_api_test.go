package test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/authflow"
	"github.com/MrEthical07/goAuthClient/middleware"
	"github.com/MrEthical07/goAuthClient/tokencache"
)

// This test guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goAuthClient.New
	_ = goAuthClient.DefaultConfig
	_ = goAuthClient.LoadConfigFromEnv
	_ = goAuthClient.WithRequestID
	_ = goAuthClient.WithoutSync
	_ = goAuthClient.NewChannelSink
	_ = goAuthClient.NewJSONWriterSink

	var _ *goAuthClient.Engine
	var _ *goAuthClient.Builder
	var _ goAuthClient.Config
	var _ goAuthClient.GetTokenOptions
	var _ goAuthClient.Token
	var _ *goAuthClient.Client
	var _ *goAuthClient.Session
	var _ *goAuthClient.User
	var _ goAuthClient.Step
	var _ goAuthClient.Event
	var _ *goAuthClient.Subscription
	var _ goAuthClient.MetricsSnapshot
	var _ *goAuthClient.APIError
	var _ goAuthClient.IntegrityProvider
	var _ goAuthClient.DeviceTokenStore
	var _ goAuthClient.EventSink = goAuthClient.NoOpSink{}
	var _ tokencache.Cache = tokencache.NewMemory()

	var _ error = goAuthClient.ErrNoActiveSession
	var _ error = goAuthClient.ErrSessionNotUsable
	var _ error = goAuthClient.ErrInvalidTokenOptions
	var _ error = goAuthClient.ErrEngineNotReady
	var _ error = goAuthClient.ErrTokenFetchFailed
	var _ error = goAuthClient.ErrTokenMalformed
	var _ error = goAuthClient.ErrAttestationDisabled
	var _ error = goAuthClient.ErrNotPrepared
	var _ error = goAuthClient.ErrMissingCloudProjectNumber
	var _ error = goAuthClient.ErrMissingApplicationID
	var _ error = goAuthClient.ErrMissingIntegrityToken
	var _ error = goAuthClient.ErrRequestFailed

	var e *goAuthClient.Engine
	var _ func(context.Context, goAuthClient.GetTokenOptions) (goAuthClient.Token, error) = e.GetToken
	var _ func(context.Context, *goAuthClient.Session, goAuthClient.GetTokenOptions) (goAuthClient.Token, error) = e.GetTokenForSession
	var _ func(context.Context, string) error = e.InvalidateTokens
	var _ func(context.Context) (*goAuthClient.Client, error) = e.RefreshClient
	var _ func(context.Context, string, string) (*goAuthClient.Client, error) = e.SetActive
	var _ func(context.Context, string) error = e.SignOut
	var _ func(context.Context, []byte) = e.SyncResponse
	var _ func() goAuthClient.Step = e.NextStep
	var _ func(int) *goAuthClient.Subscription = e.Subscribe
	var _ func(context.Context, int64) error = e.PrepareAttestation
	var _ func(context.Context, string) (string, error) = e.AttestDevice
	var _ func(string) string = e.HashedClientID
	var _ func(context.Context, string, *string) (*goAuthClient.Client, error) = e.PerformAssertion
	var _ func() = e.ClearAttestationCache
	var _ func() *http.Client = e.HTTPClient
	var _ func() uint64 = e.EventsDropped
	var _ func() = e.Close

	var _ middleware.Syncer = e
	var _ = authflow.StepDone
}

func TestBuildWithoutBaseURLFails(t *testing.T) {
	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = ""
	if _, err := goAuthClient.New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to reject a config without a base URL")
	}
}

func TestBuildRedisBackendRequiresClient(t *testing.T) {
	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = "https://example.invalid"
	cfg.Cache.Backend = goAuthClient.CacheRedis
	if _, err := goAuthClient.New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to reject the redis backend without a client")
	}
}

func TestGetTokenWithoutSessionIsTyped(t *testing.T) {
	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = "https://example.invalid"
	engine, err := goAuthClient.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	if _, err := engine.GetToken(context.Background(), goAuthClient.GetTokenOptions{}); !errors.Is(err, goAuthClient.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if got := engine.NextStep(); got != authflow.StepCollectIdentifier {
		t.Fatalf("expected StepCollectIdentifier, got %v", got)
	}

	engine.Close()
	if _, err := engine.GetToken(context.Background(), goAuthClient.GetTokenOptions{}); !errors.Is(err, goAuthClient.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady after Close, got %v", err)
	}
}
