// Package middleware provides the http.RoundTripper chain every identity
// server request passes through.
//
// # Round trippers
//
//   - [Headers] stamps API version, SDK version, mobile marker, device id,
//     device token and request id on outgoing requests.
//   - [DeviceToken] captures a rotated device token from response headers.
//   - [Sync] hands JSON response bodies to a [Syncer] and restores the body
//     for the caller.
//
// # Architecture boundaries
//
// This package translates HTTP round trips into Engine calls. It does NOT
// interpret response envelopes; that is the Syncer's job.
//
// # What this package must NOT do
//
//   - Fail or alter a response because syncing it failed.
//   - Mutate the caller's *http.Request.
//   - Retry requests.
package middleware
