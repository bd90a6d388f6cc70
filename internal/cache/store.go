// Package cache provides the key-value store used for product listings and
// the Manager that keeps cached listings consistent with writes.
package cache

import (
	"context"
	"time"
)

// Store is a key-value cache addressed by exact keys only.
// A ttl <= 0 keeps the value until it is forgotten.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Forget removes key. Forgetting a missing key is not an error.
	Forget(ctx context.Context, key string) error
	// Increment adds delta to the integer stored at key and returns the new
	// value. A missing key counts as zero.
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}
