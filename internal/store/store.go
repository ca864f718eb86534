// Package store defines the key-value contract the queue actor consumes and
// provides the Pebble-backed and in-memory implementations.
//
// A queue's records live under decimal string keys "0", "1", ... forming a
// dense, contiguous index range; the reload procedure depends on that
// contiguity. The store owns durability and layout; the queue core never
// touches the database directly.
package store

import "context"

// KV is the per-queue key-value namespace consumed by the queue actor.
type KV interface {
	// Ready blocks until the namespace is usable (or fails).
	Ready(ctx context.Context) error
	// Get returns the value for key, reporting presence explicitly.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value under key.
	Set(ctx context.Context, key string, value []byte) error
	// Clear erases every key in the namespace.
	Clear(ctx context.Context) error
}
