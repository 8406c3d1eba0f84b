// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Tweet model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a tweet is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// Now returns the current time in the precision persisted by every supported
// driver (UTC, microseconds), so values read back compare equal to cursors
// built from them.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CreateTweet inserts a new Tweet authored by userID.
func CreateTweet(ctx context.Context, db *gorm.DB, userID, content string) (*domain.Tweet, error) {
	t := &domain.Tweet{
		UserID:    userID,
		Content:   content,
		CreatedAt: Now(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTweet fetches a tweet by ID or returns ErrNotFound.
func GetTweet(ctx context.Context, db *gorm.DB, id uint64) (*domain.Tweet, error) {
	var t domain.Tweet
	if err := db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RangeTweets returns tweets authored by userID inside the bounds of q,
// ordered by (created_at DESC, id DESC).
func RangeTweets(ctx context.Context, db *gorm.DB, userID string, q pagination.Query) ([]domain.Tweet, error) {
	out := make([]domain.Tweet, 0)
	tx := rangeScope(db.WithContext(ctx).Where("user_id = ?", userID), q)
	err := tx.Find(&out).Error
	return out, err
}

// rangeScope applies the cursor bounds, order and limit of q.
func rangeScope(tx *gorm.DB, q pagination.Query) *gorm.DB {
	if q.CreatedAtGT != nil {
		tx = tx.Where("created_at > ?", q.CreatedAtGT.UTC())
	}
	if q.CreatedAtLT != nil {
		tx = tx.Where("created_at < ?", q.CreatedAtLT.UTC())
	}
	tx = tx.Order("created_at desc").Order("id desc")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

// TweetLoader returns a cache rebuild source reading the newest limit tweets
// authored by userID.
func TweetLoader(db *gorm.DB, userID string) func(ctx context.Context, limit int) ([]domain.Tweet, error) {
	return func(ctx context.Context, limit int) ([]domain.Tweet, error) {
		return RangeTweets(ctx, db, userID, pagination.Query{Limit: limit})
	}
}
