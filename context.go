package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/middleware"
)

// WithRequestID sets the X-Request-Id sent for requests made with ctx.
// Without it every request gets a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return middleware.WithRequestID(ctx, id)
}

// WithoutSync keeps responses to requests made with ctx from updating client
// state or publishing events.
//
//	Docs: Engine.HTTPClient
func WithoutSync(ctx context.Context) context.Context {
	return middleware.WithoutSync(ctx)
}
