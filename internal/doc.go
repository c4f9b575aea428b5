// Package internal contains helper packages that are intentionally private to
// mcsession.
//
// # Sub-packages
//
//   - api — HTTP client for the backend refresh endpoint
//   - notify — async event dispatch (Dispatcher + Sink implementations)
//
// # What this package must NOT do
//
//   - Export types that appear in the public mcsession API (the root package
//     aliases what it needs).
//   - Be imported by any package outside the mcsession module.
package internal
