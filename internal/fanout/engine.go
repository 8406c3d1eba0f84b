package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-feed-backend/internal/cache"
	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/observability"
	"github.com/tbourn/go-feed-backend/internal/repo"
)

// FollowerDirectory resolves the current follower set of a user. Order is
// not significant.
type FollowerDirectory interface {
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// Result summarises one fanout execution.
type Result struct {
	Recipients int // author plus distinct followers
	Inserted   int // rows written by this run
	Pushed     int // cache pushes attempted before completion or deadline
}

// Engine performs fanout jobs. All fields except Log and Now are required.
type Engine struct {
	DB        *gorm.DB
	Directory FollowerDirectory
	Cache     *cache.ListCache[domain.NewsFeed]

	BatchSize int           // rows per INSERT; <= 0 uses the repo default
	Deadline  time.Duration // hard budget per job; <= 0 disables it

	Log zerolog.Logger
	Now func() time.Time // entry timestamp source; defaults to repo.Now
}

// Fanout writes one entry per recipient in a single transaction, then pushes
// each inserted entry onto its owner's cache list.
//
// A directory or store failure fails the job before anything is written.
// Cache push failures are logged and ignored. When the deadline expires
// during the push phase, the remaining pushes are skipped, the committed rows
// stand and the deadline error is returned.
func (e *Engine) Fanout(ctx context.Context, job Job) (Result, error) {
	if e.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Deadline)
		defer cancel()
	}

	ctx, span := observability.Tracer("fanout/Engine").Start(ctx, "Fanout",
		trace.WithAttributes(
			attribute.Int64("tweet.id", int64(job.TweetID)),
			attribute.String("author.id", job.AuthorID),
		),
	)
	defer span.End()

	res, err := e.fanout(ctx, job)
	span.SetAttributes(
		attribute.Int("fanout.recipients", res.Recipients),
		attribute.Int("fanout.inserted", res.Inserted),
		attribute.Int("fanout.pushed", res.Pushed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (e *Engine) fanout(ctx context.Context, job Job) (Result, error) {
	var res Result

	tweet, err := repo.GetTweet(ctx, e.DB, job.TweetID)
	if err != nil {
		return res, fmt.Errorf("load tweet %d: %w", job.TweetID, err)
	}
	author := job.AuthorID
	if author == "" {
		author = tweet.UserID
	}

	followers, err := e.Directory.FollowerIDs(ctx, author)
	if err != nil {
		return res, fmt.Errorf("followers of %s: %w", author, err)
	}
	recipients := recipientsOf(author, followers)
	res.Recipients = len(recipients)

	now := repo.Now
	if e.Now != nil {
		now = e.Now
	}
	rows, err := repo.BulkCreateNewsFeeds(ctx, e.DB, tweet.ID, recipients, now(), e.BatchSize)
	if err != nil {
		return res, fmt.Errorf("bulk insert newsfeeds for tweet %d: %w", tweet.ID, err)
	}
	res.Inserted = len(rows)
	observability.FanoutEntries.Add(float64(len(rows)))

	if e.Cache == nil {
		return res, nil
	}
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("cache mirroring for tweet %d stopped after %d of %d: %w", tweet.ID, res.Pushed, len(rows), err)
		}
		row := rows[i]
		row.Tweet = tweet
		res.Pushed++
		key := cache.NewsFeedKey(row.UserID)
		if err := e.Cache.Push(ctx, key, row, repo.NewsFeedLoader(e.DB, row.UserID)); err != nil {
			e.Log.Warn().Err(err).Str("key", key).Uint64("tweet_id", tweet.ID).Msg("newsfeed cache push failed")
		}
	}
	return res, nil
}

// Run executes job and records its outcome. Errors are logged and counted
// here; callers treat the job as finished either way.
func (e *Engine) Run(ctx context.Context, job Job, backend string) error {
	start := time.Now()
	res, err := e.Fanout(ctx, job)
	observability.FanoutDuration.Observe(time.Since(start).Seconds())

	result := observability.FanoutOK
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result = observability.FanoutTimeout
	case err != nil:
		result = observability.FanoutFailed
	}
	observability.FanoutJobs.WithLabelValues(backend, result).Inc()

	ev := e.Log.Info()
	if err != nil {
		ev = e.Log.Error().Err(err)
	}
	ev.Str("backend", backend).
		Uint64("tweet_id", job.TweetID).
		Str("author_id", job.AuthorID).
		Int("recipients", res.Recipients).
		Int("inserted", res.Inserted).
		Int("pushed", res.Pushed).
		Dur("took", time.Since(start)).
		Str("result", result).
		Msg("fanout finished")
	return err
}

// recipientsOf returns author followed by every distinct follower.
func recipientsOf(author string, followers []string) []string {
	seen := make(map[string]struct{}, len(followers)+1)
	out := make([]string, 0, len(followers)+1)
	for _, u := range append([]string{author}, followers...) {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
