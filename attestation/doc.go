// Package attestation coordinates device-integrity attestation.
//
// A Coordinator must be prepared for a cloud project before it can attest a
// device. Prepare and AttestDevice deduplicate concurrent calls with
// golang.org/x/sync/singleflight; client id hashes and prepared providers are
// cached for the coordinator's lifetime or until ClearCache.
//
// # Architecture boundaries
//
// The platform integrity service sits behind Provider and PreparedProvider.
// The identity server sits behind Server. Both are supplied by the caller.
//
// # What this package must NOT do
//
//   - Call a provider or the server when a precondition fails.
//   - Report precondition failures as transport errors.
package attestation
