// Package metadata is a small key/value store backed by the client's local
// database. It holds durable client state such as the access credential.
package metadata

import "context"

// Repository reads and writes opaque values by key.
type Repository interface {
	// Get returns (nil, nil) when key is not stored.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	// Clear removes every key.
	Clear(ctx context.Context) error
}
