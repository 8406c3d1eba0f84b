// Package services – NewsFeedService
//
// NewsFeedService serves a user's timeline. Pages are computed from the
// owner's cached recency list when the list can prove it holds everything the
// cursor asks for, and from the timeline store otherwise.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/pagination"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

// NewsFeedService reads newsfeed pages.
type NewsFeedService struct {
	DB          *gorm.DB
	Cache       *cache.ListCache[domain.NewsFeed] // optional
	Paginator   pagination.Paginator[domain.NewsFeed]
	MaxPageSize int

	Log zerolog.Logger
}

// FeedStats summarises an owner's timeline.
type FeedStats struct {
	Count    int64      `json:"count"`
	NewestAt *time.Time `json:"newest_at,omitempty"`
}

// NewNewsFeedService wires a NewsFeedService whose paginator list limit
// follows the cache.
func NewNewsFeedService(db *gorm.DB, c *cache.ListCache[domain.NewsFeed], pageSize int, log zerolog.Logger) *NewsFeedService {
	limit := 0
	if c != nil {
		limit = c.Limit()
	}
	return &NewsFeedService{
		DB:        db,
		Cache:     c,
		Paginator: pagination.New[domain.NewsFeed](pageSize, limit),
		Log:       log,
	}
}

// List returns one page of ownerID's newsfeed, newest first. Each entry
// carries its tweet.
func (s *NewsFeedService) List(ctx context.Context, ownerID string, cursor pagination.Cursor, pageSize int) (pagination.Page[domain.NewsFeed], error) {
	tr := observability.Tracer("services/NewsFeedService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.String("cursor", cursor.Kind.String()),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if strings.TrimSpace(ownerID) == "" {
		return pagination.Page[domain.NewsFeed]{}, ErrInvalidUser
	}
	p := s.Paginator.WithPageSize(clampPageSize(pageSize, s.MaxPageSize))
	store := pagination.RangeQueryFunc[domain.NewsFeed](func(ctx context.Context, q pagination.Query) ([]domain.NewsFeed, error) {
		return repo.RangeNewsFeeds(ctx, s.DB, ownerID, q)
	})

	page, src, err := paginate[domain.NewsFeed](ctx, p, s.Cache, cache.NewsFeedKey(ownerID), repo.NewsFeedLoader(s.DB, ownerID), store, cursor)
	span.SetAttributes(
		attribute.String("page.source", string(src)),
		attribute.Int("page.items", len(page.Items)),
		attribute.Bool("page.has_next", page.HasNextPage),
	)
	if src == pagination.SourceStore && s.Cache != nil {
		observability.StoreFallbacks.WithLabelValues("newsfeed").Inc()
		s.Log.Debug().Str("owner", ownerID).Str("cursor", cursor.Kind.String()).Msg("newsfeed page served from store")
	}
	return page, err
}

// Stats returns the entry count and newest entry time of ownerID's feed.
func (s *NewsFeedService) Stats(ctx context.Context, ownerID string) (FeedStats, error) {
	tr := observability.Tracer("services/NewsFeedService")
	ctx, span := tr.Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("user.id", ownerID)),
	)
	defer span.End()

	if strings.TrimSpace(ownerID) == "" {
		return FeedStats{}, ErrInvalidUser
	}
	count, newest, err := repo.NewsFeedStats(ctx, s.DB, ownerID)
	if err != nil {
		return FeedStats{}, err
	}
	return FeedStats{Count: count, NewestAt: newest}, nil
}

// Invalidate drops ownerID's cached list; the next read rebuilds it.
func (s *NewsFeedService) Invalidate(ctx context.Context, ownerID string) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Invalidate(ctx, cache.NewsFeedKey(ownerID))
}
