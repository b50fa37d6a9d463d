// Package clientdata provides the persistent key-value cache behind external API clients.
// The cache lives in the sqlite cache file by default, or in redis when configured.
package clientdata

import (
	"context"
	"time"
)

// Store is a key-value cache with per-key expiry.
type Store interface {
	// Put stores value under key until now + ttl.
	Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get decodes the value stored under key into dest.
	// Returns false if the key doesn't exist or has expired.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Increment atomically adds one to the counter under key and returns the new value.
	// A new counter expires ttl after its first increment.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Counter returns the current counter value, 0 if the key doesn't exist or has expired.
	Counter(ctx context.Context, key string) (int64, error)

	// DeleteExpired removes expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
