package cache

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

// Fallback reads up to limit of the newest items, newest first, from the
// authoritative store.
type Fallback[T pagination.Timestamped] func(ctx context.Context, limit int) ([]T, error)

// ListCache is a typed recency cache over a ListStore. Items are stored as
// JSON snapshots so a cached entry renders without another store lookup.
// Lists are newest first; a list whose timestamps increase anywhere is
// treated as a miss and rebuilt.
type ListCache[T pagination.Timestamped] struct {
	store ListStore
	name  string
	limit int
	ttl   time.Duration
	log   zerolog.Logger
}

// NewListCache builds a cache named name (used as a metric label) that
// rebuilds lists with up to limit items and expires them after ttl.
func NewListCache[T pagination.Timestamped](store ListStore, name string, limit int, ttl time.Duration, log zerolog.Logger) *ListCache[T] {
	return &ListCache[T]{
		store: store,
		name:  name,
		limit: limit,
		ttl:   ttl,
		log:   log.With().Str("cache", name).Logger(),
	}
}

// Limit is the over-retention limit L used for rebuilds.
func (c *ListCache[T]) Limit() int { return c.limit }

// Load returns the cached list for key verbatim. On a miss, on any cache
// or decode error, or when concurrent pushes left the list out of order, it
// reads up to Limit items through fallback, caches a
// non-empty result and returns it. Only fallback errors are returned.
func (c *ListCache[T]) Load(ctx context.Context, key string, fallback Fallback[T]) ([]T, error) {
	if items, ok := c.read(ctx, key); ok {
		return items, nil
	}

	items, err := fallback(ctx, c.limit)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", key, err)
	}
	if len(items) == 0 {
		return items, nil
	}

	values := make([][]byte, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
			return items, nil
		}
		values = append(values, b)
	}
	if err := c.store.Replace(ctx, key, values, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache rebuild failed")
	}
	return items, nil
}

func (c *ListCache[T]) read(ctx context.Context, key string) ([]T, bool) {
	values, found, err := c.store.Range(ctx, key)
	if err != nil {
		observability.CacheRequests.WithLabelValues(c.name, observability.CacheError).Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !found {
		observability.CacheRequests.WithLabelValues(c.name, observability.CacheMiss).Inc()
		return nil, false
	}

	items := make([]T, len(values))
	for i, v := range values {
		if err := json.Unmarshal(v, &items[i]); err != nil {
			observability.CacheRequests.WithLabelValues(c.name, observability.CacheError).Inc()
			c.log.Warn().Err(err).Str("key", key).Msg("cache decode failed")
			return nil, false
		}
	}
	if i := firstDisordered(items); i > 0 {
		observability.CacheRequests.WithLabelValues(c.name, observability.CacheStale).Inc()
		c.log.Info().Str("key", key).Int("index", i).Msg("cache list out of order, rebuilding")
		return nil, false
	}
	observability.CacheRequests.WithLabelValues(c.name, observability.CacheHit).Inc()
	return items, true
}

// firstDisordered returns the first index whose timestamp is newer than its
// predecessor's, or 0 when the list is newest first. Equal timestamps are
// in order.
func firstDisordered[T pagination.Timestamped](items []T) int {
	for i := 1; i < len(items); i++ {
		if items[i].Timestamp().After(items[i-1].Timestamp()) {
			return i
		}
	}
	return 0
}

// Push prepends item to the list for key when the list exists. Pushes from
// concurrent fanout jobs may land out of timestamp order; the next Load
// detects that and rebuilds. When the list does not exist, the list is rebuilt through fallback; the rebuild already contains
// item once it is committed to the store.
func (c *ListCache[T]) Push(ctx context.Context, key string, item T, fallback Fallback[T]) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	pushed, err := c.store.PushFrontIfExists(ctx, key, b)
	if err != nil {
		return err
	}
	if pushed {
		return nil
	}
	_, err = c.Load(ctx, key, fallback)
	return err
}

// Invalidate drops the list for key; the next Load rebuilds it.
func (c *ListCache[T]) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}
