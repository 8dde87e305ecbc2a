package middleware

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
)

// MaxSyncBody bounds how much of a response Sync buffers. Larger bodies are
// passed through unsynced.
const MaxSyncBody = 2 << 20

// Syncer consumes response bodies. It must not retain body.
type Syncer interface {
	SyncResponse(ctx context.Context, body []byte)
}

// Sync reads JSON response bodies, hands them to syncer and gives the caller
// an equivalent unread body. It never turns a response into an error.
func Sync(syncer Syncer) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp == nil || resp.Body == nil || syncer == nil {
				return resp, err
			}
			if syncDisabled(req.Context()) || !isJSON(resp.Header.Get("Content-Type")) {
				return resp, nil
			}

			buf, readErr := io.ReadAll(io.LimitReader(resp.Body, MaxSyncBody+1))
			if readErr != nil || len(buf) > MaxSyncBody {
				resp.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(buf), resp.Body), Closer: resp.Body}
				return resp, nil
			}
			_ = resp.Body.Close()
			resp.Body = io.NopCloser(bytes.NewReader(buf))

			syncer.SyncResponse(req.Context(), buf)
			return resp, nil
		})
	}
}

// isJSON accepts application/json, +json types and a missing content type.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || (len(mt) > 5 && mt[len(mt)-5:] == "+json")
}

type readCloser struct {
	io.Reader
	io.Closer
}
