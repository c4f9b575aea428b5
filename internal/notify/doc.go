// Package notify provides asynchronous fan-out of session lifecycle events
// (tokens refreshed, logged out) to uncoupled listeners.
//
// The manager publishes; any number of sinks subscribe. Listeners never hold
// references to the manager and the manager never holds references to UI or
// application state.
//
// # What this package must NOT do
//
//   - Export types outside the mcsession module except through root aliases.
//   - Serialize token values: Event.Pair is excluded from JSON encodings so
//     writer sinks cannot leak credentials into logs.
package notify
