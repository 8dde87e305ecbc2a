// Package tokencache stores issued session tokens keyed by (session, template).
//
// # Validity
//
// A [Token]'s expiry comes only from its JWT "exp" claim. A cached token is
// handed out only while [Token.ValidFor] holds for the caller's expiration
// buffer; otherwise it is treated as absent and the caller refetches.
//
// # Backends
//
//   - [Memory] — mutex-guarded map, one per Engine.
//   - [Redis] — shared between processes, entries expire with the token.
//
// # What this package must NOT do
//
//   - Talk to the identity server or parse JWTs.
//   - Deduplicate concurrent fetches (the Engine's in-flight registry does that).
package tokencache
