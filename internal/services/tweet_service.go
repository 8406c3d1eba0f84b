// Package services – TweetService
//
// This file implements TweetService, which owns the lifecycle of tweets. It
// validates and normalizes content, persists the tweet, mirrors it onto the
// author's own cached tweet list and hands the fanout job to the configured
// dispatcher. The author's tweet list is paginated with the same cache-backed
// cursor machinery as the newsfeed.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/fanout"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/pagination"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

// DefaultTweetMaxRunes caps tweet bodies when no limit is configured.
const DefaultTweetMaxRunes = 255

// TweetService creates tweets and serves per-user tweet timelines.
type TweetService struct {
	DB         *gorm.DB
	Cache      *cache.ListCache[domain.Tweet] // optional
	Dispatcher fanout.Dispatcher              // optional; nil disables fanout
	Paginator  pagination.Paginator[domain.Tweet]

	MaxRunes    int // content limit in runes
	MaxPageSize int // cap for caller-supplied page sizes

	Log zerolog.Logger
}

// NewTweetService wires a TweetService. The paginator's list limit follows
// the cache so that short cached lists are recognised as complete.
func NewTweetService(db *gorm.DB, c *cache.ListCache[domain.Tweet], d fanout.Dispatcher, pageSize int, log zerolog.Logger) *TweetService {
	limit := 0
	if c != nil {
		limit = c.Limit()
	}
	return &TweetService{
		DB:         db,
		Cache:      c,
		Dispatcher: d,
		Paginator:  pagination.New[domain.Tweet](pageSize, limit),
		MaxRunes:   DefaultTweetMaxRunes,
		Log:        log,
	}
}

// Create validates content, persists the tweet and schedules its fanout.
// Cache and dispatch failures are logged; the tweet is already committed and
// the call still succeeds.
func (s *TweetService) Create(ctx context.Context, userID, content string) (*domain.Tweet, error) {
	tr := observability.Tracer("services/TweetService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	content = normalizeContent(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	limit := s.MaxRunes
	if limit <= 0 {
		limit = DefaultTweetMaxRunes
	}
	if utf8.RuneCountInString(content) > limit {
		return nil, ErrContentTooLong
	}

	t, err := repo.CreateTweet(ctx, s.DB, userID, content)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("tweet.id", int64(t.ID)))

	if s.Cache != nil {
		key := cache.TweetsKey(userID)
		if err := s.Cache.Push(ctx, key, *t, repo.TweetLoader(s.DB, userID)); err != nil {
			s.Log.Warn().Err(err).Str("key", key).Uint64("tweet_id", t.ID).Msg("tweet cache push failed")
		}
	}

	if s.Dispatcher != nil {
		if err := s.Dispatcher.Dispatch(ctx, fanout.Job{TweetID: t.ID, AuthorID: userID}); err != nil {
			s.Log.Error().Err(err).Uint64("tweet_id", t.ID).Msg("fanout dispatch failed")
		}
	}
	return t, nil
}

// Get returns a tweet by ID.
func (s *TweetService) Get(ctx context.Context, id uint64) (*domain.Tweet, error) {
	tr := observability.Tracer("services/TweetService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("tweet.id", int64(id))),
	)
	defer span.End()

	t, err := repo.GetTweet(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTweetNotFound
	}
	return t, err
}

// ListByUser returns one page of userID's own tweets, newest first.
func (s *TweetService) ListByUser(ctx context.Context, userID string, cursor pagination.Cursor, pageSize int) (pagination.Page[domain.Tweet], error) {
	tr := observability.Tracer("services/TweetService")
	ctx, span := tr.Start(ctx, "ListByUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("cursor", cursor.Kind.String()),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return pagination.Page[domain.Tweet]{}, ErrInvalidUser
	}
	p := s.Paginator.WithPageSize(clampPageSize(pageSize, s.MaxPageSize))
	store := pagination.RangeQueryFunc[domain.Tweet](func(ctx context.Context, q pagination.Query) ([]domain.Tweet, error) {
		return repo.RangeTweets(ctx, s.DB, userID, q)
	})

	page, src, err := paginate[domain.Tweet](ctx, p, s.Cache, cache.TweetsKey(userID), repo.TweetLoader(s.DB, userID), store, cursor)
	span.SetAttributes(attribute.String("page.source", string(src)))
	if src == pagination.SourceStore && s.Cache != nil {
		observability.StoreFallbacks.WithLabelValues("tweets").Inc()
	}
	return page, err
}

// paginate loads the cached list (rebuilding it on a miss) and reconciles it
// against the cursor, falling back to the store when the cache cannot prove
// completeness. Without a cache every page comes from the store.
func paginate[T pagination.Timestamped](
	ctx context.Context,
	p pagination.Paginator[T],
	c *cache.ListCache[T],
	key string,
	fallback cache.Fallback[T],
	store pagination.RangeQueryer[T],
	cursor pagination.Cursor,
) (pagination.Page[T], pagination.Source, error) {
	if c == nil {
		page, err := p.PaginateStore(ctx, store, cursor)
		return page, pagination.SourceStore, err
	}
	list, err := c.Load(ctx, key, fallback)
	if err != nil {
		return pagination.Page[T]{}, pagination.SourceCache, err
	}
	return p.Paginate(ctx, list, store, cursor)
}

// clampPageSize returns size capped at limit. Non-positive sizes are left to
// the paginator default.
func clampPageSize(size, limit int) int {
	if limit > 0 && size > limit {
		return limit
	}
	return size
}

// normalizeContent applies Unicode NFC and trims surrounding whitespace.
func normalizeContent(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
