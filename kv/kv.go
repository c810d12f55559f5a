// Package kv provides the key-value persistence boundary for dashboard state.
package kv

import "errors"

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal key-value store. Values are opaque bytes; callers
// own serialization.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases underlying resources.
	Close() error
}
