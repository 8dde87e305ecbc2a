package attestation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/MrEthical07/goAuthClient/internal"
	"github.com/MrEthical07/goAuthClient/session"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotPrepared is returned by AttestDevice before any Prepare succeeded.
	ErrNotPrepared = errors.New("attestation provider not prepared")
	// ErrMissingCloudProjectNumber is returned by Prepare without a project number.
	ErrMissingCloudProjectNumber = errors.New("attestation requires a cloud project number")
	// ErrMissingApplicationID is returned by PerformAssertion without an application id.
	ErrMissingApplicationID = errors.New("attestation requires an application id")
	// ErrMissingIntegrityToken is returned by PerformAssertion with an empty token.
	ErrMissingIntegrityToken = errors.New("attestation requires an integrity token")
	// ErrProviderUnavailable is returned when no Provider was configured.
	ErrProviderUnavailable = errors.New("attestation provider unavailable")
)

// Provider prepares the platform integrity service for a cloud project.
type Provider interface {
	Prepare(ctx context.Context, cloudProjectNumber int64) (PreparedProvider, error)
}

// PreparedProvider issues integrity tokens bound to a request hash.
type PreparedProvider interface {
	RequestToken(ctx context.Context, requestHash string) (string, error)
}

// Server is the identity server side of attestation.
type Server interface {
	AttestationChallenge(ctx context.Context) (string, error)
	VerifyAttestation(ctx context.Context, token, applicationID string) (*session.Client, error)
}

// ClientStore receives the client returned by a successful assertion.
type ClientStore interface {
	Replace(*session.Client) *session.Client
}

// Config wires a Coordinator.
type Config struct {
	Provider Provider
	Server   Server
	Store    ClientStore
	Logger   *slog.Logger
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	provider Provider
	server   Server
	store    ClientStore
	logger   *slog.Logger

	mu       sync.Mutex
	hashes   map[string]string
	prepared map[int64]PreparedProvider
	current  PreparedProvider

	prepares singleflight.Group
	attests  singleflight.Group
}

// New returns a Coordinator with empty caches.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		provider: cfg.Provider,
		server:   cfg.Server,
		store:    cfg.Store,
		logger:   logger,
		hashes:   make(map[string]string),
		prepared: make(map[int64]PreparedProvider),
	}
}

// Prepare readies the provider for cloudProjectNumber and makes it current.
// A project prepared earlier is reused without calling the provider again.
func (c *Coordinator) Prepare(ctx context.Context, cloudProjectNumber int64) error {
	if cloudProjectNumber <= 0 {
		return ErrMissingCloudProjectNumber
	}
	if c.provider == nil {
		return ErrProviderUnavailable
	}

	c.mu.Lock()
	if p, ok := c.prepared[cloudProjectNumber]; ok {
		c.current = p
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	key := strconv.FormatInt(cloudProjectNumber, 10)
	shared := context.WithoutCancel(ctx)
	v, err := await(ctx, c.prepares.DoChan(key, func() (any, error) {
		p, err := c.provider.Prepare(shared, cloudProjectNumber)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProviderUnavailable
		}
		c.mu.Lock()
		c.prepared[cloudProjectNumber] = p
		c.mu.Unlock()
		c.logger.Debug("attestation provider prepared", "cloud_project_number", cloudProjectNumber)
		return p, nil
	}))
	if err != nil {
		c.logger.Warn("attestation prepare failed", "cloud_project_number", cloudProjectNumber, "error", err)
		return fmt.Errorf("prepare attestation provider: %w", err)
	}

	c.mu.Lock()
	c.current = v.(PreparedProvider)
	c.mu.Unlock()
	return nil
}

// Prepared reports whether a provider is ready.
func (c *Coordinator) Prepared() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// AttestDevice requests an integrity token bound to the hashed client id.
func (c *Coordinator) AttestDevice(ctx context.Context, clientID string) (string, error) {
	c.mu.Lock()
	p := c.current
	c.mu.Unlock()
	if p == nil {
		return "", ErrNotPrepared
	}

	hash := c.HashedClientID(clientID)
	shared := context.WithoutCancel(ctx)
	v, err := await(ctx, c.attests.DoChan(clientID, func() (any, error) {
		return p.RequestToken(shared, hash)
	}))
	if err != nil {
		return "", fmt.Errorf("request integrity token: %w", err)
	}
	return v.(string), nil
}

// await waits for a shared call on the caller's own ctx. The call itself runs
// detached, so one caller cancelling does not fail the others.
func await(ctx context.Context, ch <-chan singleflight.Result) (any, error) {
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HashedClientID returns the lowercase hex SHA-256 of clientID. Results are
// memoized.
func (c *Coordinator) HashedClientID(clientID string) string {
	c.mu.Lock()
	if h, ok := c.hashes[clientID]; ok {
		c.mu.Unlock()
		return h
	}
	c.mu.Unlock()

	h := internal.HashBindingValue(clientID)

	c.mu.Lock()
	c.hashes[clientID] = h
	c.mu.Unlock()
	return h
}

// Challenge fetches a fresh attestation challenge from the server.
func (c *Coordinator) Challenge(ctx context.Context) (string, error) {
	if c.server == nil {
		return "", ErrProviderUnavailable
	}
	return c.server.AttestationChallenge(ctx)
}

// PerformAssertion sends token to the server for verification and publishes
// the returned client. A nil or empty applicationID fails before any call.
func (c *Coordinator) PerformAssertion(ctx context.Context, token string, applicationID *string) (*session.Client, error) {
	if applicationID == nil || *applicationID == "" {
		return nil, ErrMissingApplicationID
	}
	if token == "" {
		return nil, ErrMissingIntegrityToken
	}
	if c.server == nil {
		return nil, ErrProviderUnavailable
	}

	client, err := c.server.VerifyAttestation(ctx, token, *applicationID)
	if err != nil {
		return nil, fmt.Errorf("verify attestation: %w", err)
	}
	if client != nil && c.store != nil {
		c.store.Replace(client)
	}
	return client, nil
}

// ClearCache drops memoized hashes and prepared providers. Calls already in
// flight are not cancelled.
func (c *Coordinator) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.hashes)
	clear(c.prepared)
	c.current = nil
}
