// Package api is the HTTP client for the dashboard backend's token refresh
// endpoint.
//
// Every failure — transport errors, non-2xx statuses, and malformed response
// bodies — surfaces as a structured [*Error] carrying the observed status so
// the manager can map it without string matching.
//
// # What this package must NOT do
//
//   - Persist tokens or emit notifications; it performs exactly one request
//     per call and returns.
//   - Retry. Retry and rate-limit policy belong to the manager.
package api
