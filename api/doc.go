// Package api is a thin client for the identity server's frontend endpoints.
//
// Requests are sent through the caller's *http.Client, whose transport is
// expected to carry the header and response-sync middleware. Request bodies
// are form encoded by a hand-written Values method per parameter type.
//
// Non-2xx responses are returned as *Error, which matches ErrRequestFailed
// with errors.Is.
package api
