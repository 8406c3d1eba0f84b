package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/pagination"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

// ---------- test helpers ----------

func newFanoutDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:fanout_%s?mode=memory&cache=shared", uuid.NewString())
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

type staticDirectory struct {
	followers map[string][]string
	err       error
}

func (d staticDirectory) FollowerIDs(_ context.Context, userID string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.followers[userID], nil
}

// blockingStore delays every push until the context is done.
type blockingStore struct {
	cache.ListStore
	mu     sync.Mutex
	pushes int
}

func (s *blockingStore) PushFrontIfExists(ctx context.Context, _ string, _ []byte) (bool, error) {
	s.mu.Lock()
	s.pushes++
	s.mu.Unlock()
	<-ctx.Done()
	return false, ctx.Err()
}

func newEngine(db *gorm.DB, dir FollowerDirectory, store cache.ListStore) *Engine {
	return &Engine{
		DB:        db,
		Directory: dir,
		Cache:     cache.NewListCache[domain.NewsFeed](store, "newsfeeds", 20, time.Hour, zerolog.Nop()),
		BatchSize: 2,
		Deadline:  time.Minute,
		Log:       zerolog.Nop(),
	}
}

func ownersOf(t *testing.T, db *gorm.DB, tweetID uint64) []string {
	t.Helper()
	var owners []string
	if err := db.Model(&domain.NewsFeed{}).Where("tweet_id = ?", tweetID).Pluck("user_id", &owners).Error; err != nil {
		t.Fatal(err)
	}
	sort.Strings(owners)
	return owners
}

// ---------- Fanout ----------

func TestFanout_WritesOneEntryPerRecipient(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	store := cache.NewMemoryStore()
	e := newEngine(db, staticDirectory{followers: map[string][]string{
		"author": {"f1", "f2", "f3", "author", "f2"},
	}}, store)

	// f1 already has a cached feed; everyone else is cold
	older, _ := repo.CreateTweet(ctx, db, "someone", "older")
	if _, err := repo.BulkCreateNewsFeeds(ctx, db, older.ID, []string{"f1"}, repo.Now(), 10); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Cache.Load(ctx, cache.NewsFeedKey("f1"), repo.NewsFeedLoader(db, "f1")); err != nil {
		t.Fatal(err)
	}

	tw, _ := repo.CreateTweet(ctx, db, "author", "hello")
	before := repo.Now()
	res, err := e.Fanout(ctx, Job{TweetID: tw.ID, AuthorID: "author"})
	after := repo.Now()
	if err != nil {
		t.Fatalf("Fanout: %v", err)
	}
	if res.Recipients != 4 || res.Inserted != 4 || res.Pushed != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}

	got := ownersOf(t, db, tw.ID)
	if fmt.Sprint(got) != fmt.Sprint([]string{"author", "f1", "f2", "f3"}) {
		t.Fatalf("unexpected owners: %v", got)
	}
	var rows []domain.NewsFeed
	db.Where("tweet_id = ?", tw.ID).Find(&rows)
	for _, r := range rows {
		if r.CreatedAt.Before(before) || r.CreatedAt.After(after) {
			t.Fatalf("created_at %v outside job window [%v, %v]", r.CreatedAt, before, after)
		}
	}

	// warm list received a push on top of the old entry
	values, found, _ := store.Range(ctx, cache.NewsFeedKey("f1"))
	if !found || len(values) != 2 {
		t.Fatalf("f1 cache should hold 2 entries, found=%v len=%d", found, len(values))
	}
	feed, _ := e.Cache.Load(ctx, cache.NewsFeedKey("f1"), repo.NewsFeedLoader(db, "f1"))
	if feed[0].TweetID != tw.ID || feed[0].Tweet == nil || feed[0].Tweet.Content != "hello" {
		t.Fatalf("newest cached entry should embed the tweet: %+v", feed[0])
	}

	// cold lists were rebuilt from the store and contain the entry once
	feed, _ = e.Cache.Load(ctx, cache.NewsFeedKey("f3"), repo.NewsFeedLoader(db, "f3"))
	if len(feed) != 1 || feed[0].TweetID != tw.ID {
		t.Fatalf("f3 cache unexpected: %+v", feed)
	}
}

func TestFanout_RepeatIsIdempotent(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	store := cache.NewMemoryStore()
	e := newEngine(db, staticDirectory{followers: map[string][]string{"a": {"b"}}}, store)
	tw, _ := repo.CreateTweet(ctx, db, "a", "x")
	job := Job{TweetID: tw.ID, AuthorID: "a"}

	if _, err := e.Fanout(ctx, job); err != nil {
		t.Fatal(err)
	}
	res, err := e.Fanout(ctx, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 0 || res.Pushed != 0 {
		t.Fatalf("repeat should insert and push nothing: %+v", res)
	}
	if n, _ := repo.CountNewsFeeds(ctx, db, "b"); n != 1 {
		t.Fatalf("expected a single entry for b, got %d", n)
	}
	values, _, _ := store.Range(ctx, cache.NewsFeedKey("b"))
	if len(values) != 1 {
		t.Fatalf("cache should hold one entry for b, got %d", len(values))
	}
}

func TestFanout_ConcurrentJobsKeepFeedNewestFirst(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	e := newEngine(db, staticDirectory{followers: map[string][]string{"author": {"f"}}}, cache.NewMemoryStore())
	key := cache.NewsFeedKey("f")
	loader := repo.NewsFeedLoader(db, "f")

	t1 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	old, _ := repo.CreateTweet(ctx, db, "someone", "old")
	if _, err := repo.BulkCreateNewsFeeds(ctx, db, old.ID, []string{"f"}, t1.Add(-time.Hour), 10); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Cache.Load(ctx, key, loader); err != nil {
		t.Fatal(err)
	}

	// Two workers: the job stamped t1 pushes after the job stamped t1+1ms.
	first, _ := repo.CreateTweet(ctx, db, "author", "first")
	second, _ := repo.CreateTweet(ctx, db, "author", "second")
	e.Now = func() time.Time { return t1.Add(time.Millisecond) }
	if _, err := e.Fanout(ctx, Job{TweetID: second.ID, AuthorID: "author"}); err != nil {
		t.Fatal(err)
	}
	e.Now = func() time.Time { return t1 }
	if _, err := e.Fanout(ctx, Job{TweetID: first.ID, AuthorID: "author"}); err != nil {
		t.Fatal(err)
	}

	feed, err := e.Cache.Load(ctx, key, loader)
	if err != nil {
		t.Fatal(err)
	}
	var ids []uint64
	for _, nf := range feed {
		ids = append(ids, nf.TweetID)
	}
	want := []uint64{second.ID, first.ID, old.ID}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Fatalf("feed order = %v, want %v", ids, want)
	}

	// scrolling back one entry at a time reaches every stored entry once
	store := pagination.RangeQueryFunc[domain.NewsFeed](func(ctx context.Context, q pagination.Query) ([]domain.NewsFeed, error) {
		return repo.RangeNewsFeeds(ctx, db, "f", q)
	})
	p := pagination.New[domain.NewsFeed](1, e.Cache.Limit())
	var walked []uint64
	cur := pagination.Cursor{}
	for i := 0; i < 10; i++ {
		cached, err := e.Cache.Load(ctx, key, loader)
		if err != nil {
			t.Fatal(err)
		}
		page, _, err := p.Paginate(ctx, cached, store, cur)
		if err != nil {
			t.Fatal(err)
		}
		for _, nf := range page.Items {
			walked = append(walked, nf.TweetID)
		}
		if !page.HasNextPage {
			break
		}
		cur = pagination.OlderThan(*page.OldestAt())
	}
	if fmt.Sprint(walked) != fmt.Sprint(want) {
		t.Fatalf("walk = %v, want %v", walked, want)
	}
}

func TestFanout_DirectoryFailureWritesNothing(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	boom := errors.New("directory down")
	e := newEngine(db, staticDirectory{err: boom}, cache.NewMemoryStore())
	tw, _ := repo.CreateTweet(ctx, db, "a", "x")

	if _, err := e.Fanout(ctx, Job{TweetID: tw.ID, AuthorID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("expected directory error, got %v", err)
	}
	if owners := ownersOf(t, db, tw.ID); len(owners) != 0 {
		t.Fatalf("nothing should be written, got %v", owners)
	}
}

func TestFanout_MissingTweet(t *testing.T) {
	db := newFanoutDB(t)
	e := newEngine(db, staticDirectory{}, cache.NewMemoryStore())
	if _, err := e.Fanout(context.Background(), Job{TweetID: 99, AuthorID: "a"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFanout_AuthorFallsBackToTweetOwner(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	e := newEngine(db, staticDirectory{followers: map[string][]string{"a": {"b"}}}, cache.NewMemoryStore())
	tw, _ := repo.CreateTweet(ctx, db, "a", "x")

	res, err := e.Fanout(ctx, Job{TweetID: tw.ID})
	if err != nil || res.Inserted != 2 {
		t.Fatalf("unexpected: %+v %v", res, err)
	}
}

func TestFanout_DeadlineStopsPushesButKeepsRows(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	store := &blockingStore{ListStore: cache.NewMemoryStore()}
	e := newEngine(db, staticDirectory{followers: map[string][]string{"a": {"b", "c"}}}, store)
	e.Deadline = 300 * time.Millisecond
	tw, _ := repo.CreateTweet(ctx, db, "a", "x")

	res, err := e.Fanout(ctx, Job{TweetID: tw.ID, AuthorID: "a"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if res.Inserted != 3 || res.Pushed != 1 || store.pushes != 1 {
		t.Fatalf("expected 3 rows and a single push attempt: %+v pushes=%d", res, store.pushes)
	}
	if owners := ownersOf(t, db, tw.ID); len(owners) != 3 {
		t.Fatalf("committed rows must stand, got %v", owners)
	}
}

func TestFanout_CachePushErrorsAreSwallowed(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	e := newEngine(db, staticDirectory{followers: map[string][]string{"a": {"b"}}}, failingStore{})
	tw, _ := repo.CreateTweet(ctx, db, "a", "x")

	res, err := e.Fanout(ctx, Job{TweetID: tw.ID, AuthorID: "a"})
	if err != nil || res.Inserted != 2 || res.Pushed != 2 {
		t.Fatalf("cache failures must not fail the job: %+v %v", res, err)
	}
}

type failingStore struct{}

var errCacheDown = errors.New("cache down")

func (failingStore) Range(context.Context, string) ([][]byte, bool, error) {
	return nil, false, errCacheDown
}
func (failingStore) Replace(context.Context, string, [][]byte, time.Duration) error {
	return errCacheDown
}
func (failingStore) PushFrontIfExists(context.Context, string, []byte) (bool, error) {
	return false, errCacheDown
}
func (failingStore) Delete(context.Context, string) error { return errCacheDown }

// ---------- Run ----------

func TestRun_RecordsOutcome(t *testing.T) {
	db := newFanoutDB(t)
	ctx := context.Background()
	e := newEngine(db, staticDirectory{}, cache.NewMemoryStore())
	tw, _ := repo.CreateTweet(ctx, db, "a", "x")

	okBefore := testutil.ToFloat64(observability.FanoutJobs.WithLabelValues("test", observability.FanoutOK))
	failBefore := testutil.ToFloat64(observability.FanoutJobs.WithLabelValues("test", observability.FanoutFailed))

	if err := e.Run(ctx, Job{TweetID: tw.ID, AuthorID: "a"}, "test"); err != nil {
		t.Fatal(err)
	}
	if err := e.Run(ctx, Job{TweetID: 12345, AuthorID: "a"}, "test"); err == nil {
		t.Fatalf("expected failure for missing tweet")
	}

	if got := testutil.ToFloat64(observability.FanoutJobs.WithLabelValues("test", observability.FanoutOK)); got != okBefore+1 {
		t.Fatalf("ok counter = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(observability.FanoutJobs.WithLabelValues("test", observability.FanoutFailed)); got != failBefore+1 {
		t.Fatalf("failed counter = %v, want %v", got, failBefore+1)
	}
}

func TestRecipientsOf(t *testing.T) {
	got := recipientsOf("a", []string{"b", "", "a", "c", "b"})
	if fmt.Sprint(got) != "[a b c]" {
		t.Fatalf("recipientsOf = %v", got)
	}
	if got := recipientsOf("a", nil); len(got) != 1 || got[0] != "a" {
		t.Fatalf("author alone expected, got %v", got)
	}
}

func TestJobKey(t *testing.T) {
	if k := (Job{TweetID: 42}).Key(); k != "fanout-tweet-42" {
		t.Fatalf("Key() = %q", k)
	}
}
