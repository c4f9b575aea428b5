package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a [Backend] when the key has no stored value.
var ErrKeyNotFound = errors.New("key not found")

// ErrStorageUnavailable wraps backend transport or I/O failures.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Backend abstracts persistent key/value storage for credentials.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the stored value, or [ErrKeyNotFound] when absent.
	// Any other error means the backend failed or is unavailable.
	Get(ctx context.Context, key string) (string, error)

	// Set persists the value, overwriting any existing entry.
	Set(ctx context.Context, key, value string) error

	// Delete removes the entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
