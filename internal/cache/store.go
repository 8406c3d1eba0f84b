// Package cache implements the per-owner recency cache: a bounded,
// newest-first list of serialized entries per key, held in a fast list store
// (in memory or Redis) and rebuilt lazily from the authoritative store.
//
// The cache is advisory. Every backend error degrades to a miss and callers
// never depend on the cache for correctness.
package cache

import (
	"context"
	"time"
)

// ListStore is the raw list backend behind ListCache. Values are stored
// newest first. Implementations must be safe for concurrent use.
type ListStore interface {
	// Range returns the full list for key. found is false when the key does
	// not exist or has expired.
	Range(ctx context.Context, key string) (values [][]byte, found bool, err error)

	// Replace atomically swaps the list for key with values and sets its
	// expiry. An empty values slice removes the key.
	Replace(ctx context.Context, key string, values [][]byte, ttl time.Duration) error

	// PushFrontIfExists prepends value when the list for key exists and
	// reports whether it did. The list is not trimmed.
	PushFrontIfExists(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes the list for key.
	Delete(ctx context.Context, key string) error
}

// NewsFeedKey is the cache key of an owner's newsfeed list.
func NewsFeedKey(ownerID string) string { return "newsfeeds:" + ownerID }

// TweetsKey is the cache key of a user's own tweet list.
func TweetsKey(userID string) string { return "tweets:" + userID }
