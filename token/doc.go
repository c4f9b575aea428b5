// Package token provides local, signature-free inspection of JWT access tokens
// for expiry gating.
//
// Inspection here is a heuristic to avoid sending requests that the backend
// would reject, not a trust decision: no signature is verified and the backend
// remains the authority on token validity.
//
// # Fail-closed contract
//
// Every structural defect — empty input, implausibly short input, anything
// other than three dot-separated segments, an undecodable claims segment, or a
// missing exp claim — reports the token as expired. A malformed token must
// never be treated as usable.
package token
