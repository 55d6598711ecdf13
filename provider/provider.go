// Package provider defines the backing store used by pool to persist object
// records.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the bytes previously passed to Set for a key. The keyspaces "obj:<ns>:" and
// "meta:<ns>:" are owned by the pool; external writers under these prefixes
// are treated as corruption.
//
// Durability depends on the implementation: sqlite and redis persist records,
// bigcache and ristretto are volatile and suit tests or ephemeral pools.
package provider

import (
	"context"
	"errors"
)

// ErrRejected is returned by Set when a volatile store refused the write
// (e.g. admission policy under pressure).
var ErrRejected = errors.New("provider: write rejected")

// Provider is a minimal byte store. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
