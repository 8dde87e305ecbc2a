// Package flight deduplicates concurrent work per key.
//
// A caller that finds no in-flight call for its key starts a new one and
// registers it with insert-if-absent. The task body is gated: it does not run
// until registration succeeds. A caller that loses the registration race
// cancels its own task, so the body never runs, and waits on the winner
// instead. Only the winner removes the map entry, exactly once, before its
// result becomes visible.
//
// # Architecture boundaries
//
// Group knows nothing about tokens, caches or HTTP. Callers supply the body.
//
// # What this package must NOT do
//
//   - Run a loser's body.
//   - Leave a finished call registered.
//   - Let a caller deadline cancel work other callers are waiting on.
package flight
