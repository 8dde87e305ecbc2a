// Package session models the client-side view of the identity server: the
// [Client], its [Session] list and the signed-in [User], plus the [StateStore]
// that holds the current snapshot and the device token stores.
//
// # Snapshot semantics
//
// Values decoded from server responses are never edited in place. Every update
// builds a new [Client] and swaps it into the [StateStore] with a single atomic
// pointer store, so readers of [StateStore.Current] always see a self-consistent
// snapshot without locking.
//
// # Architecture boundaries
//
// This package owns the data model, the snapshot holder and device token
// storage. Talking to the identity server and publishing events belong to the
// Engine.
//
// # What this package must NOT do
//
//   - Import goAuthClient, api, or middleware (no upward imports).
//   - Mutate a Client after it has been published through Replace.
package session
