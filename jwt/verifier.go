package jwt

import (
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names the algorithm tokens are expected to be signed with.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodRS256   SigningMethod = "rs256"
	MethodHS256   SigningMethod = "hs256"
)

// Config configures a Verifier. Keys are raw bytes or PEM.
type Config struct {
	SigningMethod     SigningMethod
	PublicKey         []byte
	VerifyKeys        map[string][]byte
	Issuer            string
	AuthorizedParties []string
	Leeway            time.Duration
}

// Verifier checks token signatures and standard claims. It is immutable after
// NewVerifier and safe for concurrent use.
type Verifier struct {
	config Config
	key    any
	keys   map[string]any
}

// NewVerifier validates cfg and pre-parses every configured key.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.PublicKey) == 0 && len(cfg.VerifyKeys) == 0 {
		return nil, errors.New("verifier requires public key or verify key set")
	}

	v := &Verifier{config: cfg, keys: make(map[string]any, len(cfg.VerifyKeys))}
	switch cfg.SigningMethod {
	case MethodEd25519, MethodRS256, MethodHS256:
	default:
		return nil, errors.New("unsupported signing method")
	}

	if len(cfg.PublicKey) > 0 {
		key, err := v.parseKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		v.key = key
	}
	for kid, raw := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		key, err := v.parseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid verify key for kid %q: %w", kid, err)
		}
		v.keys[kid] = key
	}

	return v, nil
}

// Verify checks the signature, expiry and configured issuer/azp of raw.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(v.config.Leeway))
	}
	if v.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if len(v.keys) > 0 {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			key, ok := v.keys[kid]
			if !ok {
				return nil, errors.New("unknown kid")
			}
			return key, nil
		}
		return v.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if len(v.config.AuthorizedParties) > 0 && claims.AuthorizedParty != "" &&
		!slices.Contains(v.config.AuthorizedParties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("unauthorized party %q", claims.AuthorizedParty)
	}

	return claims, nil
}

func (v *Verifier) method() jwt.SigningMethod {
	switch v.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	case MethodRS256:
		return jwt.SigningMethodRS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (v *Verifier) parseKey(raw []byte) (any, error) {
	switch v.config.SigningMethod {
	case MethodHS256:
		return raw, nil
	case MethodRS256:
		return parseRSAPublicKey(raw)
	default:
		return parseEdPublicKey(raw)
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}

func parseRSAPublicKey(key []byte) (*rsa.PublicKey, error) {
	parsed, err := jwt.ParseRSAPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid rsa public key")
	}
	return parsed, nil
}
