// Package fanout turns "user U published tweet T" into one durable newsfeed
// entry per recipient (U and every follower of U) and mirrors each new entry
// into the owner's recency cache.
//
// Jobs carry identifiers only so they can cross an asynchronous boundary.
// Two dispatchers are provided: an in-process bounded Queue and a Temporal
// workflow dispatcher. Both run the same Engine under a hard deadline.
package fanout

import (
	"context"
	"errors"
	"strconv"
)

var (
	// ErrQueueFull is returned by Queue.Dispatch when the buffer is full.
	ErrQueueFull = errors.New("fanout queue full")

	// ErrQueueClosed is returned by Queue.Dispatch after Close.
	ErrQueueClosed = errors.New("fanout queue closed")
)

// Backend labels used in logs and metrics.
const (
	BackendInProc   = "inproc"
	BackendTemporal = "temporal"
)

// Job is the serializable unit of fanout work.
type Job struct {
	TweetID  uint64 `json:"tweet_id"`
	AuthorID string `json:"author_id"`
}

// Key is a stable identifier for the job, used as the workflow ID.
func (j Job) Key() string {
	return "fanout-tweet-" + strconv.FormatUint(j.TweetID, 10)
}

// Dispatcher hands a job to an asynchronous executor. Dispatch must not wait
// for the job to run.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Runner executes a job to completion. backend labels the outcome metrics.
type Runner interface {
	Run(ctx context.Context, job Job, backend string) error
}
