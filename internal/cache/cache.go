// Package cache provides a response cache for the read API, backed by
// redis when configured and by process memory otherwise.
package cache

import (
	"context"
	"time"
)

// Cache stores serialized API responses under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
