package goAuthClient

import (
	"time"

	"github.com/MrEthical07/goAuthClient/attestation"
	"github.com/MrEthical07/goAuthClient/authflow"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/tokencache"
)

// GetTokenOptions tunes one GetToken call.
type GetTokenOptions struct {
	// Template selects a named JWT template. Empty means the session token.
	Template string
	// SkipCache forces a network fetch. The fresh token is still cached.
	SkipCache bool
	// ExpirationBuffer overrides Config.Token.ExpirationBuffer when > 0.
	// Negative values are rejected with ErrInvalidTokenOptions.
	ExpirationBuffer time.Duration
}

// Token is an issued session token. Its expiry comes from the JWT exp claim.
type Token = tokencache.Token

// Client, Session and User are server snapshots. They are shared and must be
// treated as read-only.
type (
	Client  = session.Client
	Session = session.Session
	User    = session.User
)

// Step is the next UI-visible action of a sign-in or sign-up.
type Step = authflow.Step

// IntegrityProvider prepares the platform integrity service.
type IntegrityProvider = attestation.Provider

// DeviceTokenStore persists the device token between requests.
type DeviceTokenStore = session.DeviceTokenStore
