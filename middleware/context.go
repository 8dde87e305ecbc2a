package middleware

import "context"

type requestIDKey struct{}
type skipSyncKey struct{}

// WithRequestID overrides the generated X-Request-Id for requests made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns an id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithoutSync marks requests made with ctx so Sync leaves their responses alone.
func WithoutSync(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipSyncKey{}, true)
}

func syncDisabled(ctx context.Context) bool {
	skip, _ := ctx.Value(skipSyncKey{}).(bool)
	return skip
}
