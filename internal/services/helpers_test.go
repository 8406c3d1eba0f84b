package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/fanout"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func tweetCache(limit int) *cache.ListCache[domain.Tweet] {
	return cache.NewListCache[domain.Tweet](cache.NewMemoryStore(), "tweets", limit, time.Hour, zerolog.Nop())
}

func feedCache(limit int) *cache.ListCache[domain.NewsFeed] {
	return cache.NewListCache[domain.NewsFeed](cache.NewMemoryStore(), "newsfeed", limit, time.Hour, zerolog.Nop())
}

// seedTweet inserts a tweet with an explicit creation time.
func seedTweet(t *testing.T, db *gorm.DB, userID string, at time.Time) domain.Tweet {
	t.Helper()
	tw := domain.Tweet{UserID: userID, Content: "tweet " + at.Format(time.RFC3339), CreatedAt: at}
	if err := db.Create(&tw).Error; err != nil {
		t.Fatalf("seed tweet: %v", err)
	}
	return tw
}

// seedFeed writes n entries onto owner's feed, one tweet per second starting
// at base, and returns the tweet IDs newest first.
func seedFeed(t *testing.T, db *gorm.DB, owner string, n int) []uint64 {
	t.Helper()
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		tw := seedTweet(t, db, "author", at)
		if _, err := repo.BulkCreateNewsFeeds(context.Background(), db, tw.ID, []string{owner}, at, 0); err != nil {
			t.Fatalf("seed feed: %v", err)
		}
		ids[n-1-i] = tw.ID
	}
	return ids
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []fanout.Job
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job fanout.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return d.err
}

// syncDispatcher runs fanout inline so tests can read the result immediately.
type syncDispatcher struct {
	engine *fanout.Engine
}

func (d syncDispatcher) Dispatch(ctx context.Context, job fanout.Job) error {
	_, err := d.engine.Fanout(ctx, job)
	return err
}
