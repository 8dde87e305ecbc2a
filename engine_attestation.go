package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/middleware"
)

// PrepareAttestation readies the integrity provider for cloudProjectNumber.
// Zero uses Config.Attestation.CloudProjectNumber.
func (e *Engine) PrepareAttestation(ctx context.Context, cloudProjectNumber int64) error {
	if err := e.attestationReady(); err != nil {
		return err
	}
	if cloudProjectNumber == 0 {
		cloudProjectNumber = e.config.Attestation.CloudProjectNumber
	}
	if err := e.attestation.Prepare(ctx, cloudProjectNumber); err != nil {
		e.metricInc(MetricAttestationFailure)
		return err
	}
	e.metricInc(MetricAttestationPrepared)
	return nil
}

// AttestDevice requests an integrity token bound to HashedClientID(clientID).
// An empty clientID means the current client. It fails with an error matching
// ErrNotPrepared before PrepareAttestation succeeded, without contacting the
// provider. With attestation disabled that error is ErrAttestationDisabled.
func (e *Engine) AttestDevice(ctx context.Context, clientID string) (string, error) {
	if err := e.attestationReady(); err != nil {
		return "", err
	}
	if clientID == "" {
		clientID = e.state.Current().ID
	}
	token, err := e.attestation.AttestDevice(ctx, clientID)
	if err != nil {
		e.metricInc(MetricAttestationFailure)
		return "", err
	}
	return token, nil
}

// HashedClientID returns the lowercase hex SHA-256 of clientID.
func (e *Engine) HashedClientID(clientID string) string {
	if e == nil || e.attestation == nil {
		return ""
	}
	return e.attestation.HashedClientID(clientID)
}

// AttestationChallenge fetches a server challenge for the integrity request.
func (e *Engine) AttestationChallenge(ctx context.Context) (string, error) {
	if err := e.attestationReady(); err != nil {
		return "", err
	}
	return e.attestation.Challenge(middleware.WithoutSync(ctx))
}

// PerformAssertion verifies token with the server and installs the returned
// client. A nil applicationID falls back to Config.Attestation.ApplicationID;
// an empty one fails with ErrMissingApplicationID.
func (e *Engine) PerformAssertion(ctx context.Context, token string, applicationID *string) (*Client, error) {
	if err := e.attestationReady(); err != nil {
		return nil, err
	}
	if applicationID == nil && e.config.Attestation.ApplicationID != "" {
		id := e.config.Attestation.ApplicationID
		applicationID = &id
	}
	client, err := e.attestation.PerformAssertion(middleware.WithoutSync(ctx), token, applicationID)
	if err != nil {
		e.metricInc(MetricAttestationFailure)
		return nil, err
	}
	e.metricInc(MetricAttestationSuccess)
	return client, nil
}

// ClearAttestationCache drops memoized hashes and prepared providers.
func (e *Engine) ClearAttestationCache() {
	if e == nil || e.attestation == nil {
		return
	}
	e.attestation.ClearCache()
}

func (e *Engine) attestationReady() error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if !e.config.Attestation.Enabled {
		return ErrAttestationDisabled
	}
	return nil
}
