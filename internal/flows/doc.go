// Package flows contains pure-function orchestrators for Engine operations.
//
// Each flow function (RunFetchToken, RunResponseSync) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. This keeps the Engine type thin and lets the flows be tested
// with plain function fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the token cache, the identity API, the
// client state store and the event bus. They do NOT own any of these
// resources; ownership stays with the Engine. Single-flight deduplication
// wraps RunFetchToken in the Engine, not here.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency fields.
//   - Return an error from RunResponseSync. Response sync never fails a request.
package flows
