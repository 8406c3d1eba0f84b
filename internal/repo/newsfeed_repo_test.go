package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

func TestBulkCreateNewsFeeds_InsertsOnePerOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tw, _ := CreateTweet(ctx, db, "author", "hello")

	owners := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		owners = append(owners, fmt.Sprintf("u%d", i))
	}
	at := Now()
	rows, err := BulkCreateNewsFeeds(ctx, db, tw.ID, owners, at, 3)
	if err != nil {
		t.Fatalf("BulkCreateNewsFeeds: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.ID == 0 || r.TweetID != tw.ID || !r.CreatedAt.Equal(at) {
			t.Fatalf("unexpected row: %+v", r)
		}
	}
	var total int64
	db.Model(&domain.NewsFeed{}).Where("tweet_id = ?", tw.ID).Count(&total)
	if total != 7 {
		t.Fatalf("expected 7 stored rows, got %d", total)
	}
}

func TestBulkCreateNewsFeeds_RepeatInsertsOnlyMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tw, _ := CreateTweet(ctx, db, "author", "hello")

	if _, err := BulkCreateNewsFeeds(ctx, db, tw.ID, []string{"a", "b"}, Now(), 0); err != nil {
		t.Fatal(err)
	}
	rows, err := BulkCreateNewsFeeds(ctx, db, tw.ID, []string{"a", "b", "c", "c"}, Now(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].UserID != "c" {
		t.Fatalf("expected only c to be inserted, got %+v", rows)
	}

	rows, err = BulkCreateNewsFeeds(ctx, db, tw.ID, []string{"a", "b", "c"}, Now(), 0)
	if err != nil || len(rows) != 0 {
		t.Fatalf("full repeat should insert nothing: %+v err=%v", rows, err)
	}

	if n, _ := CountNewsFeeds(ctx, db, "c"); n != 1 {
		t.Fatalf("expected one entry for c, got %d", n)
	}
}

func TestBulkCreateNewsFeeds_EmptyOwners(t *testing.T) {
	db := newTestDB(t)
	rows, err := BulkCreateNewsFeeds(context.Background(), db, 1, nil, Now(), 10)
	if err != nil || rows == nil || len(rows) != 0 {
		t.Fatalf("unexpected: %v %v", rows, err)
	}
}

func TestBulkCreateNewsFeeds_FailureWritesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tw, _ := CreateTweet(ctx, db, "author", "hello")

	// fail the second INSERT batch; the first must be rolled back with it
	calls := 0
	boom := errors.New("disk full")
	if err := db.Callback().Create().Before("gorm:create").Register("test:fail_second_batch", func(tx *gorm.DB) {
		if tx.Statement.Table != "newsfeeds" {
			return
		}
		calls++
		if calls == 2 {
			_ = tx.AddError(boom)
		}
	}); err != nil {
		t.Fatal(err)
	}

	rows, err := BulkCreateNewsFeeds(ctx, db, tw.ID, []string{"a", "b"}, Now(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got rows=%+v err=%v", rows, err)
	}
	var total int64
	db.Model(&domain.NewsFeed{}).Count(&total)
	if total != 0 {
		t.Fatalf("failed bulk write must leave no rows, found %d", total)
	}
}

func TestRangeNewsFeeds_PreloadsAndOrders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var tweetIDs []uint64
	for i := 0; i < 5; i++ {
		tw := domain.Tweet{UserID: "a", Content: fmt.Sprintf("c%d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		db.Create(&tw)
		tweetIDs = append(tweetIDs, tw.ID)
		if _, err := BulkCreateNewsFeeds(ctx, db, tw.ID, []string{"owner", "other"}, tw.CreatedAt, 10); err != nil {
			t.Fatal(err)
		}
	}

	all, err := RangeNewsFeeds(ctx, db, "owner", pagination.Query{})
	if err != nil || len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d err=%v", len(all), err)
	}
	for i, nf := range all {
		want := tweetIDs[4-i]
		if nf.TweetID != want || nf.Tweet == nil || nf.Tweet.ID != want || nf.UserID != "owner" {
			t.Fatalf("entry %d unexpected: %+v", i, nf)
		}
	}

	lt := all[1].CreatedAt
	page, err := RangeNewsFeeds(ctx, db, "owner", pagination.Query{CreatedAtLT: &lt, Limit: 2})
	if err != nil || len(page) != 2 || page[0].TweetID != all[2].TweetID {
		t.Fatalf("older page unexpected: %+v err=%v", page, err)
	}

	gt := all[3].CreatedAt
	newer, err := RangeNewsFeeds(ctx, db, "owner", pagination.Query{CreatedAtGT: &gt})
	if err != nil || len(newer) != 3 {
		t.Fatalf("newer range unexpected: %d err=%v", len(newer), err)
	}
}
