// Package internal holds helpers that are private to goAuthClient.
//
// # Sub-packages
//
//   - flight — keyed single-flight group with detached, bounded execution
//   - flows — pure-function orchestrators for the token and sync paths
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAuthClient API.
//   - Be imported by any package outside the goAuthClient module.
package internal
