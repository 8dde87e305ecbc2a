package goAuthClient

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goAuthClient/attestation"
	"github.com/MrEthical07/goAuthClient/api"
)

var (
	// ErrNoActiveSession is returned when a token is requested without an active session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionNotUsable is returned for a pending session that still requires MFA setup.
	ErrSessionNotUsable = errors.New("session not usable for token issuance")
	// ErrInvalidTokenOptions is returned for a negative expiration buffer.
	ErrInvalidTokenOptions = errors.New("invalid token options")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrTokenFetchFailed wraps network and server failures of the token endpoint.
	ErrTokenFetchFailed = errors.New("token fetch failed")
	// ErrTokenMalformed is returned when the issued token carries no usable expiry.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrAttestationDisabled is returned by attestation calls when
	// Attestation.Enabled is false. It matches ErrNotPrepared, since a disabled
	// coordinator is never prepared.
	ErrAttestationDisabled = fmt.Errorf("attestation disabled: %w", attestation.ErrNotPrepared)
)

// Precondition errors shared with the attestation package.
var (
	ErrNotPrepared               = attestation.ErrNotPrepared
	ErrMissingCloudProjectNumber = attestation.ErrMissingCloudProjectNumber
	ErrMissingApplicationID      = attestation.ErrMissingApplicationID
	ErrMissingIntegrityToken     = attestation.ErrMissingIntegrityToken
)

// ErrRequestFailed matches every non-2xx identity server response.
var ErrRequestFailed = api.ErrRequestFailed

// APIError is a non-2xx identity server response.
type APIError = api.Error
