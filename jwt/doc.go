// Package jwt reads the claims of session tokens issued by the identity server.
//
// # Expiry
//
// [ParseExpiry] extracts the "exp" claim without verifying the signature; the
// claim is the sole source of truth for a token's lifetime on this client.
//
// # Verification
//
// [Verifier] optionally checks signatures (EdDSA, RS256, HS256) against
// configured keys, selected by "kid" when a key set is provided.
//
// # What this package must NOT do
//
//   - Issue tokens.
//   - Cache tokens or talk to the network.
package jwt
