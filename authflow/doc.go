// Package authflow models the multi-step sign-in and sign-up protocol reported by
// the identity server.
//
// # Protocol shape
//
// A flow is driven entirely by the server-reported [Status]:
//
//	needs_identifier -> needs_first_factor -> [needs_second_factor] -> complete
//
// with needs_new_password and missing_requirements as side branches. [NextStep]
// maps a status to the UI-visible [Step]; [CanTransition] validates a status
// change between two consecutive server snapshots of the same flow object.
//
// # Factor ordering
//
// Factors offered for a step are ordered with one of the named [Comparator]
// values. Sorting is stable: strategies missing from a comparator's preference
// list sort after the listed ones and keep their input order.
//
// # What this package must NOT do
//
//   - Perform I/O. Flow objects are replaced wholesale by the caller after every
//     attempt or prepare call.
//   - Import the session package (session imports authflow).
package authflow
