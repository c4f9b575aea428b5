// Package mcsession provides the client-side session and token lifecycle manager for
// the Minecraft server-dashboard backend API: local access-token expiry inspection,
// single-flight coordinated refresh, validated credential persistence, and typed
// notifications to uncoupled listeners.
//
// The package is designed for concurrent client workloads: Manager methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// mcsession is the public surface. It exposes [Manager], [Builder], [Config], and value
// types (TokenPair, TokenStatus, MetricsSnapshot, Event). Credential persistence lives
// in the store sub-package, local token inspection in the token sub-package, and all
// internal coordination — the refresh endpoint client and notification dispatch —
// lives under internal/ and is never exported directly.
//
// # What this package must NOT do
//
//   - Verify token signatures or make trust decisions; expiry inspection is a local
//     heuristic and the backend remains the authority.
//   - Hold references to UI or application state; listeners observe [Event] values
//     through registered sinks instead.
//   - Log credential values. Diagnostics carry key names and statuses only.
//
// # Concurrency contract
//
// At most one refresh network call is in flight per Manager at any time. Callers that
// request a refresh while one is in flight join the pending call and receive its exact
// result. A refresh requested within [TokenConfig.MinRefreshInterval] of the previous
// attempt fails with [ErrRefreshRateLimited] without reaching the network.
package mcsession
