package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token cannot be decoded.
	ErrMalformed = errors.New("malformed jwt")
	// ErrMissingExpiry is returned when a token carries no "exp" claim.
	ErrMissingExpiry = errors.New("jwt missing exp claim")
)

// Claims are the session token claims this client reads.
type Claims struct {
	SessionID       string `json:"sid,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
	OrgID           string `json:"org_id,omitempty"`
	jwt.RegisteredClaims
}

var unverifiedParser = jwt.NewParser()

// ParseClaims decodes claims without verifying the signature.
func ParseClaims(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := unverifiedParser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}
	return claims, nil
}

// ParseExpiry returns the instant encoded in the "exp" claim.
func ParseExpiry(raw string) (time.Time, error) {
	claims, err := ParseClaims(raw)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}
