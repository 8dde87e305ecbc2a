package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// TokenSink stores a device token returned by the server.
type TokenSink interface {
	Set(ctx context.Context, token string) error
}

// DeviceToken saves the Authorization header of successful responses into
// sink. Store errors are logged and otherwise ignored.
func DeviceToken(sink TokenSink, logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp == nil || sink == nil {
				return resp, err
			}
			if token, ok := deviceToken(resp.Header.Get(HeaderAuth)); ok {
				if setErr := sink.Set(req.Context(), token); setErr != nil {
					logger.Warn("device token store failed", "error", setErr)
				}
			}
			return resp, nil
		})
	}
}
