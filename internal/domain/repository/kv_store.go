package repository

import "context"

// KVStore is the key-value collaborator holding serialized user records.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Update atomically replaces the value at key with fn's result.
	// Returning an error from fn aborts without writing.
	Update(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error
	Close() error
}
