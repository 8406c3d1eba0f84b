package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

// seedTweets inserts n tweets by userID one second apart, oldest first, and
// returns them newest first.
func seedTweets(t *testing.T, db *gorm.DB, userID string, n int, base time.Time) []domain.Tweet {
	t.Helper()
	out := make([]domain.Tweet, n)
	for i := 0; i < n; i++ {
		tw := domain.Tweet{UserID: userID, Content: "t", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := db.Create(&tw).Error; err != nil {
			t.Fatalf("seed tweet: %v", err)
		}
		out[n-1-i] = tw
	}
	return out
}

func TestCreateGetTweet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tw, err := CreateTweet(ctx, db, "u1", "hello")
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	if tw.ID == 0 || tw.UserID != "u1" || tw.CreatedAt.IsZero() {
		t.Fatalf("unexpected tweet: %+v", tw)
	}
	if tw.CreatedAt.Location() != time.UTC || tw.CreatedAt.Nanosecond()%1000 != 0 {
		t.Fatalf("created_at should be UTC with microsecond precision: %v", tw.CreatedAt)
	}

	got, err := GetTweet(ctx, db, tw.ID)
	if err != nil || got.Content != "hello" || !got.CreatedAt.Equal(tw.CreatedAt) {
		t.Fatalf("GetTweet: %+v %v", got, err)
	}

	if _, err := GetTweet(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTweet_Error_NoTable(t *testing.T) {
	db := newTestDB(t, &domain.Friendship{})
	if tw, err := CreateTweet(context.Background(), db, "u1", "x"); err == nil || tw != nil {
		t.Fatalf("expected error without table, got %v %v", tw, err)
	}
}

func TestRangeTweets(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mine := seedTweets(t, db, "u1", 6, base)
	seedTweets(t, db, "u2", 3, base)

	all, err := RangeTweets(ctx, db, "u1", pagination.Query{})
	if err != nil || len(all) != 6 {
		t.Fatalf("expected 6 tweets, got %d err=%v", len(all), err)
	}
	for i := range all {
		if all[i].ID != mine[i].ID {
			t.Fatalf("order mismatch at %d: %d vs %d", i, all[i].ID, mine[i].ID)
		}
	}

	lt := mine[1].CreatedAt
	older, err := RangeTweets(ctx, db, "u1", pagination.Query{CreatedAtLT: &lt, Limit: 2})
	if err != nil || len(older) != 2 || older[0].ID != mine[2].ID || older[1].ID != mine[3].ID {
		t.Fatalf("older range unexpected: %+v err=%v", older, err)
	}

	gt := mine[2].CreatedAt
	newer, err := RangeTweets(ctx, db, "u1", pagination.Query{CreatedAtGT: &gt})
	if err != nil || len(newer) != 2 || newer[0].ID != mine[0].ID {
		t.Fatalf("newer range unexpected: %+v err=%v", newer, err)
	}

	none, err := RangeTweets(ctx, db, "nobody", pagination.Query{})
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v err=%v", none, err)
	}
}

func TestRangeTweets_TieBreaksOnID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := domain.Tweet{UserID: "u1", Content: "a", CreatedAt: at}
	b := domain.Tweet{UserID: "u1", Content: "b", CreatedAt: at}
	db.Create(&a)
	db.Create(&b)

	got, err := RangeTweets(ctx, db, "u1", pagination.Query{})
	if err != nil || len(got) != 2 || got[0].ID != b.ID {
		t.Fatalf("equal timestamps should order by id desc: %+v", got)
	}
}
