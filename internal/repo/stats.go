// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over timelines
// and authored tweets. Each function is context-aware and safe to call from
// services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
)

// CountNewsFeeds returns the total number of entries on ownerID's timeline.
func CountNewsFeeds(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	count, _, err := NewsFeedStats(ctx, db, ownerID)
	return count, err
}

// NewsFeedStats returns aggregate metadata for an owner's timeline: the total
// number of entries and the newest CreatedAt among them.
//
// When the timeline is empty, the returned count is 0 and newest is nil.
func NewsFeedStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, newest *time.Time, err error) {
	return stats(func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.NewsFeed{}).Where("user_id = ?", ownerID)
	})
}

// stats runs a count and a newest-row query, each on a fresh scope from q.
func stats(q func() *gorm.DB) (count int64, newest *time.Time, err error) {
	if err = q().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	t := row.CreatedAt.UTC()
	return count, &t, nil
}
