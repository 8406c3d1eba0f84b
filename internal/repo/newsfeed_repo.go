// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the timeline store: bulk insertion of
// newsfeed entries and reverse-chronological range queries over an owner's
// feed.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

// DefaultBatchSize bounds the rows per INSERT when the caller passes <= 0.
const DefaultBatchSize = 500

// BulkCreateNewsFeeds writes one entry of tweetID per owner in a single
// transaction. Owners that already hold an entry for the tweet are skipped,
// so the call is safe to repeat; only the rows inserted by this call are
// returned. Rows are inserted batchSize at a time.
//
// Either every missing row is written or none is.
func BulkCreateNewsFeeds(ctx context.Context, db *gorm.DB, tweetID uint64, owners []string, createdAt time.Time, batchSize int) ([]domain.NewsFeed, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	rows := make([]domain.NewsFeed, 0, len(owners))
	if len(owners) == 0 {
		return rows, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := make(map[string]struct{})
		for start := 0; start < len(owners); start += batchSize {
			end := min(start+batchSize, len(owners))
			var have []string
			if err := tx.Model(&domain.NewsFeed{}).
				Where("tweet_id = ? AND user_id IN ?", tweetID, owners[start:end]).
				Pluck("user_id", &have).Error; err != nil {
				return err
			}
			for _, u := range have {
				existing[u] = struct{}{}
			}
		}

		for _, owner := range owners {
			if _, ok := existing[owner]; ok {
				continue
			}
			existing[owner] = struct{}{}
			rows = append(rows, domain.NewsFeed{
				UserID:    owner,
				TweetID:   tweetID,
				CreatedAt: createdAt,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RangeNewsFeeds returns ownerID's entries inside the bounds of q, ordered by
// (created_at DESC, id DESC), with the Tweet association preloaded.
func RangeNewsFeeds(ctx context.Context, db *gorm.DB, ownerID string, q pagination.Query) ([]domain.NewsFeed, error) {
	out := make([]domain.NewsFeed, 0)
	tx := rangeScope(db.WithContext(ctx).Where("user_id = ?", ownerID), q)
	err := tx.Preload("Tweet").Find(&out).Error
	return out, err
}

// NewsFeedLoader returns a cache rebuild source reading the newest limit
// entries of ownerID's timeline.
func NewsFeedLoader(db *gorm.DB, ownerID string) func(ctx context.Context, limit int) ([]domain.NewsFeed, error) {
	return func(ctx context.Context, limit int) ([]domain.NewsFeed, error) {
		return RangeNewsFeeds(ctx, db, ownerID, pagination.Query{Limit: limit})
	}
}
