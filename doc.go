// Package goAuthClient keeps a device's authentication state consistent with a
// remote identity server: it caches and deduplicates short-lived session
// tokens, applies every server response to an atomically swapped client
// snapshot, drives the sign-in/sign-up step machine and coordinates device
// attestation.
//
// The package is designed for concurrent use: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build]. There
// is no package-level state; tests and applications construct isolated engines.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Engine], [Builder], [Config],
// [EventBus] and value types. Token caching lives in tokencache, client
// snapshots in session, flow rules in authflow, attestation in attestation and
// the HTTP plumbing in api and middleware. Flow orchestration and the in-flight
// registry live under internal/.
//
// # What this package must NOT do
//
//   - Fail an HTTP response because syncing it failed.
//   - Run more than one token fetch per (session, template) at a time.
//   - Treat a server-side consistency skew as an error.
//
// # Performance contract
//
// GetToken with a fresh cached token performs no network I/O. Concurrent
// misses for the same (session, template) share one request.
package goAuthClient
