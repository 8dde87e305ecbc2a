package api

import "net/url"

// VerifyAttestationParams is the form body of the attestation verify call.
type VerifyAttestationParams struct {
	Token         string
	ApplicationID string
}

func (p VerifyAttestationParams) Values() url.Values {
	v := url.Values{}
	v.Set("token", p.Token)
	v.Set("client_id", p.ApplicationID)
	return v
}

// SessionTokenParams is the form body of the token call.
type SessionTokenParams struct {
	OrganizationID string
}

func (p SessionTokenParams) Values() url.Values {
	v := url.Values{}
	if p.OrganizationID != "" {
		v.Set("organization_id", p.OrganizationID)
	}
	return v
}

// SetActiveParams is the form body of the touch call.
type SetActiveParams struct {
	OrganizationID string
}

func (p SetActiveParams) Values() url.Values {
	v := url.Values{}
	if p.OrganizationID != "" {
		v.Set("active_organization_id", p.OrganizationID)
	}
	return v
}
