package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderAPIVersion = "Auth-Api-Version"
	HeaderSDKVersion = "X-Client-SDK-Version"
	HeaderMobile     = "X-Mobile"
	HeaderDeviceID   = "X-Device-Id"
	HeaderRequestID  = "X-Request-Id"
	HeaderAuth       = "Authorization"
)

// TokenSource returns the current device token. An empty token is not sent.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// HeaderConfig configures Headers.
type HeaderConfig struct {
	APIVersion   string
	SDKVersion   string
	DeviceID     string
	DeviceTokens TokenSource
}

// Headers stamps the fixed client headers on a clone of every request.
func Headers(cfg HeaderConfig) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			out := req.Clone(ctx)

			setIfNotEmpty(out.Header, HeaderAPIVersion, cfg.APIVersion)
			setIfNotEmpty(out.Header, HeaderSDKVersion, cfg.SDKVersion)
			setIfNotEmpty(out.Header, HeaderDeviceID, cfg.DeviceID)
			out.Header.Set(HeaderMobile, "1")

			requestID, ok := RequestIDFromContext(ctx)
			if !ok {
				requestID = uuid.NewString()
			}
			out.Header.Set(HeaderRequestID, requestID)

			if cfg.DeviceTokens != nil && out.Header.Get(HeaderAuth) == "" {
				if token, err := cfg.DeviceTokens.Get(ctx); err == nil && token != "" {
					out.Header.Set(HeaderAuth, token)
				}
			}

			return next.RoundTrip(out)
		})
	}
}

func setIfNotEmpty(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

// deviceToken extracts the token from an Authorization value, accepting an
// optional Bearer prefix.
func deviceToken(value string) (string, bool) {
	const bearer = "Bearer "
	value = strings.TrimSpace(value)
	if len(value) >= len(bearer) && strings.EqualFold(value[:len(bearer)], bearer) {
		value = strings.TrimSpace(value[len(bearer):])
	}
	if value == "" {
		return "", false
	}
	return value, true
}
