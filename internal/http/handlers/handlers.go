// Package handlers exposes the REST endpoints of the feed service:
//   - /tweets       (publish, fetch, per-user timeline)
//   - /newsfeeds    (the caller's home timeline)
//   - /friendships  (follow graph)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/http/middleware"
	"github.com/tbourn/go-feed-backend/internal/pagination"
	"github.com/tbourn/go-feed-backend/internal/repo"
	"github.com/tbourn/go-feed-backend/internal/services"
	"github.com/tbourn/go-feed-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// TweetService defines tweet publication and retrieval consumed by handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TweetService interface {
	// Create validates and persists a tweet, then schedules its fanout.
	Create(ctx context.Context, userID, content string) (*domain.Tweet, error)
	// Get returns a single tweet by ID.
	Get(ctx context.Context, id uint64) (*domain.Tweet, error)
	// ListByUser returns one cursor page of a user's own tweets.
	ListByUser(ctx context.Context, userID string, cursor pagination.Cursor, pageSize int) (pagination.Page[domain.Tweet], error)
}

// NewsFeedService defines home-timeline reads.
type NewsFeedService interface {
	// List returns one cursor page of the owner's newsfeed.
	List(ctx context.Context, ownerID string, cursor pagination.Cursor, pageSize int) (pagination.Page[domain.NewsFeed], error)
	// Stats returns the entry count and newest entry time.
	Stats(ctx context.Context, ownerID string) (services.FeedStats, error)
	// Invalidate drops the owner's cached list so the next read rebuilds it.
	Invalidate(ctx context.Context, ownerID string) error
}

// FriendshipService defines follow-graph operations.
type FriendshipService interface {
	Follow(ctx context.Context, userID, targetID string) (bool, error)
	Unfollow(ctx context.Context, userID, targetID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]domain.Friendship, int64, error)
	ListFollowings(ctx context.Context, userID string, page, pageSize int) ([]domain.Friendship, int64, error)
}

// IdempotencyStore remembers which resource an (user, scope, key) request
// produced so a retry can be answered with the same resource. The key is
// reserved before the resource is created, so at most one request per key
// creates anything.
type IdempotencyStore interface {
	// Reserve claims the key. When reserved is false the key is already held
	// and rec is the existing record, pending or complete.
	Reserve(ctx context.Context, userID, scope, key string) (rec *domain.Idempotency, reserved bool, err error)
	// Complete attaches the created resource to a reservation.
	Complete(ctx context.Context, rec *domain.Idempotency, resourceID string, status int) error
	// Release drops a reservation whose request failed, so the key can be
	// retried.
	Release(ctx context.Context, rec *domain.Idempotency) error
}

// DBIdempotency is the GORM-backed IdempotencyStore.
type DBIdempotency struct {
	DB  *gorm.DB
	TTL time.Duration
	// Hold bounds how long a reservation blocks its key when the request
	// holding it never completes or releases it.
	Hold time.Duration
	Now  func() time.Time
}

// NewIdempotencyStore returns a DBIdempotency; ttl <= 0 defaults to 24h.
// Reservations are held for one minute.
func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *DBIdempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DBIdempotency{DB: db, TTL: ttl, Hold: time.Minute, Now: time.Now}
}

// Reserve implements IdempotencyStore. An expired record under the same key
// is purged and the reservation retried once.
func (s *DBIdempotency) Reserve(ctx context.Context, userID, scope, key string) (*domain.Idempotency, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, "", 0, s.Hold)
		if err == nil {
			return rec, true, nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, false, err
		}

		now := s.Now().UTC()
		existing, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, false, err
		}
		if _, err := repo.PurgeExpiredIdempotency(ctx, s.DB, userID, scope, key, now); err != nil {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("reserve idempotency key %q: %w", key, repo.ErrDuplicate)
}

// Complete implements IdempotencyStore.
func (s *DBIdempotency) Complete(ctx context.Context, rec *domain.Idempotency, resourceID string, status int) error {
	return repo.CompleteIdempotency(ctx, s.DB, rec.ID, resourceID, status, s.TTL)
}

// Release implements IdempotencyStore.
func (s *DBIdempotency) Release(ctx context.Context, rec *domain.Idempotency) error {
	return repo.DeleteIdempotency(ctx, s.DB, rec.ID)
}

// Exists has the middleware.IdempotencyLookup signature. Only completed
// records count; a pending reservation is not a replay.
func (s *DBIdempotency) Exists(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !rec.Pending(), nil
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for tweets, newsfeeds and friendships.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	tweetSvc  TweetService
	feedSvc   NewsFeedService
	friendSvc FriendshipService
	idem      IdempotencyStore
}

// New constructs and returns a Handlers instance bound to the given services.
// idem may be nil, which disables idempotent replays.
func New(tweetSvc TweetService, feedSvc NewsFeedService, friendSvc FriendshipService, idem IdempotencyStore) *Handlers {
	return &Handlers{tweetSvc: tweetSvc, feedSvc: feedSvc, friendSvc: friendSvc, idem: idem}
}

// userID extracts the caller set by middleware.Identity. When the middleware
// is not installed (unit tests) it falls back to the X-User-ID header.
func userID(c *gin.Context) string {
	if s := middleware.UserIDFrom(c); s != "" {
		return s
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader(middleware.HeaderUserID))
	}
	return ""
}

// requireUser writes 401 and returns false for anonymous requests.
func requireUser(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header required")
		return "", false
	}
	return uid, true
}

//
// DTOs
//

// Pagination carries pagination metadata for offset-paged list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// cursorFrom reads newer_than / older_than and the optional page_size.
// A page_size of 0 lets the service apply its default.
func cursorFrom(c *gin.Context) (pagination.Cursor, int, error) {
	cur, err := pagination.ParseCursor(c.Query("newer_than"), c.Query("older_than"))
	if err != nil {
		return pagination.Cursor{}, 0, err
	}
	size := utils.AtoiDefault(c.Query("page_size"), 0)
	if size < 0 {
		size = 0
	}
	return cur, size, nil
}
