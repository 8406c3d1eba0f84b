package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/fanout"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/pagination"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

func walkFeed(t *testing.T, s *NewsFeedService, owner string, pageSize int) []domain.NewsFeed {
	t.Helper()
	var seen []domain.NewsFeed
	cursor := pagination.Cursor{}
	for i := 0; i < 100; i++ {
		page, err := s.List(context.Background(), owner, cursor, pageSize)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		seen = append(seen, page.Items...)
		if !page.HasNextPage {
			return seen
		}
		cursor = pagination.OlderThan(*page.OldestAt())
	}
	t.Fatal("pagination did not terminate")
	return nil
}

func TestNewsFeedService_List_WalksPastTrimmedCache(t *testing.T) {
	db := newServiceDB(t)
	s := NewNewsFeedService(db, feedCache(10), 4, zerolog.Nop())
	want := seedFeed(t, db, "owner", 25)

	before := testutil.ToFloat64(observability.StoreFallbacks.WithLabelValues("newsfeed"))
	seen := walkFeed(t, s, "owner", 0)

	if len(seen) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i].TweetID != want[i] {
			t.Fatalf("entry %d: want tweet %d, got %d", i, want[i], seen[i].TweetID)
		}
		if seen[i].Tweet == nil || seen[i].Tweet.ID != want[i] {
			t.Fatalf("entry %d missing embedded tweet", i)
		}
	}
	if after := testutil.ToFloat64(observability.StoreFallbacks.WithLabelValues("newsfeed")); after <= before {
		t.Fatalf("expected store fallback beyond the cached list (before=%v after=%v)", before, after)
	}
}

func TestNewsFeedService_List_SmallFeedFromCache(t *testing.T) {
	db := newServiceDB(t)
	fc := feedCache(20)
	s := NewNewsFeedService(db, fc, 20, zerolog.Nop())
	want := seedFeed(t, db, "owner", 3)

	page, err := s.List(context.Background(), "owner", pagination.Cursor{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 3 || page.HasNextPage {
		t.Fatalf("expected 3 entries and no next page, got %d %v", len(page.Items), page.HasNextPage)
	}

	// The next page is answered from the complete cached mirror.
	db.Exec("DROP TABLE newsfeeds")
	next, err := s.List(context.Background(), "owner", pagination.OlderThan(*page.OldestAt()), 0)
	if err != nil {
		t.Fatalf("older page should not touch the store: %v", err)
	}
	if len(next.Items) != 0 || next.HasNextPage {
		t.Fatalf("expected empty final page, got %+v", next)
	}
	if page.Items[0].TweetID != want[0] {
		t.Fatalf("newest entry mismatch")
	}
}

func TestNewsFeedService_List_NewerThanReturnsFreshEntries(t *testing.T) {
	db := newServiceDB(t)
	fc := feedCache(20)
	s := NewNewsFeedService(db, fc, 5, zerolog.Nop())
	ctx := context.Background()
	seedFeed(t, db, "owner", 8)

	first, err := s.List(ctx, "owner", pagination.Cursor{}, 0)
	if err != nil {
		t.Fatal(err)
	}

	at := base.Add(time.Minute)
	tw := seedTweet(t, db, "author", at)
	rows, err := repo.BulkCreateNewsFeeds(ctx, db, tw.ID, []string{"owner"}, at, 0)
	if err != nil {
		t.Fatal(err)
	}
	rows[0].Tweet = &tw
	if err := fc.Push(ctx, cache.NewsFeedKey("owner"), rows[0], repo.NewsFeedLoader(db, "owner")); err != nil {
		t.Fatal(err)
	}

	fresh, err := s.List(ctx, "owner", pagination.NewerThan(*first.NewestAt()), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh.Items) != 1 || fresh.Items[0].TweetID != tw.ID || fresh.HasNextPage {
		t.Fatalf("expected only the new entry, got %+v", fresh)
	}
}

func TestNewsFeedService_List_WithoutCache(t *testing.T) {
	db := newServiceDB(t)
	s := NewNewsFeedService(db, nil, 10, zerolog.Nop())
	want := seedFeed(t, db, "owner", 12)

	seen := walkFeed(t, s, "owner", 0)
	if len(seen) != len(want) {
		t.Fatalf("expected %d, got %d", len(want), len(seen))
	}
}

func TestNewsFeedService_List_Errors(t *testing.T) {
	db := newServiceDB(t)
	s := NewNewsFeedService(db, feedCache(10), 10, zerolog.Nop())

	if _, err := s.List(context.Background(), "", pagination.Cursor{}, 0); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("want ErrInvalidUser, got %v", err)
	}

	db.Exec("DROP TABLE newsfeeds")
	if _, err := s.List(context.Background(), "owner", pagination.Cursor{}, 0); err == nil {
		t.Fatal("expected error when the store is unavailable on a cache miss")
	}
}

func TestNewsFeedService_StatsAndInvalidate(t *testing.T) {
	db := newServiceDB(t)
	fc := feedCache(10)
	s := NewNewsFeedService(db, fc, 10, zerolog.Nop())
	ctx := context.Background()
	seedFeed(t, db, "owner", 4)

	st, err := s.Stats(ctx, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if st.Count != 4 || st.NewestAt == nil || !st.NewestAt.Equal(base.Add(3*time.Second)) {
		t.Fatalf("unexpected stats %+v", st)
	}

	if _, err := s.List(ctx, "owner", pagination.Cursor{}, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(ctx, "owner"); err != nil {
		t.Fatal(err)
	}
	rebuilt := false
	if _, err := fc.Load(ctx, cache.NewsFeedKey("owner"), func(context.Context, int) ([]domain.NewsFeed, error) {
		rebuilt = true
		return nil, nil
	}); err != nil {
		t.Fatal(err)
	}
	if !rebuilt {
		t.Fatal("invalidate should force a rebuild")
	}
}

func TestTweetToNewsFeed_EndToEnd(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	fc := feedCache(20)
	friends := NewFriendshipService(db)
	feeds := NewNewsFeedService(db, fc, 10, zerolog.Nop())
	engine := &fanout.Engine{DB: db, Directory: friends, Cache: fc, Log: zerolog.Nop()}
	tweets := NewTweetService(db, tweetCache(20), syncDispatcher{engine: engine}, 10, zerolog.Nop())

	for _, f := range []string{"f1", "f2"} {
		if _, err := friends.Follow(ctx, f, "author"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := friends.Follow(ctx, "f3", "someone-else"); err != nil {
		t.Fatal(err)
	}

	tw, err := tweets.Create(ctx, "author", "hello followers")
	if err != nil {
		t.Fatal(err)
	}

	for _, owner := range []string{"author", "f1", "f2"} {
		page, err := feeds.List(ctx, owner, pagination.Cursor{}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Items) != 1 || page.Items[0].TweetID != tw.ID {
			t.Fatalf("%s: expected the new tweet, got %+v", owner, page.Items)
		}
		if page.Items[0].Tweet == nil || page.Items[0].Tweet.Content != "hello followers" {
			t.Fatalf("%s: entry should embed the tweet", owner)
		}
	}
	page, err := feeds.List(ctx, "f3", pagination.Cursor{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("non-follower received the tweet: %+v", page.Items)
	}
}
