// Package cachestore caches per-community moderation configuration between
// post submissions. Values are JSON strings keyed by namespace and community
// ID; entries expire on a TTL and are purged when an administrator mutates
// the configuration.
package cachestore

import (
	"context"
)

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}
