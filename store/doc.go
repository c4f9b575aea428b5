// Package store provides validated credential persistence for mcsession over
// pluggable key/value backends (memory, file, Redis).
//
// # Degradation contract
//
// The [Store] layer never panics and never surfaces backend exceptions to readers:
// every read degrades to an absence signal when the backend is unavailable, the
// stored value fails parsing, or a validator rejects it. Corrupt or schema-stale
// JSON entries are deleted on read (self-healing) so callers can never observe a
// value that failed validation.
//
// # Architecture boundaries
//
// This package owns the persisted key set (access token, refresh token, user
// profile) and the validators bound to each key. It does NOT decide whether a
// token is expired or usable — that belongs to the manager and the token package.
//
// # What this package must NOT do
//
//   - Log credential values. Diagnostics name keys, never contents.
//   - Import mcsession or token (no upward imports).
//   - Perform network refresh calls.
package store
