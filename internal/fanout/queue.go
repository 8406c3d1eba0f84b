package fanout

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-feed-backend/internal/observability"
)

// Queue is an in-process Dispatcher: a bounded buffer drained by a fixed
// pool of worker goroutines. Dispatch never blocks; a full buffer rejects
// the job.
type Queue struct {
	runner Runner
	log    zerolog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan Job

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue starts workers goroutines reading from a buffer of size jobs.
func NewQueue(runner Runner, workers, size int, log zerolog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		runner: runner,
		log:    log,
		jobs:   make(chan Job, size),
		ctx:    ctx,
		cancel: cancel,
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker(i)
	}
	return q
}

// Dispatch enqueues job. It returns ErrQueueFull when the buffer is full and
// ErrQueueClosed after Close.
func (q *Queue) Dispatch(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		observability.FanoutQueueDepth.Set(float64(len(q.jobs)))
		return nil
	default:
		observability.FanoutJobs.WithLabelValues(BackendInProc, observability.FanoutRejected).Inc()
		return ErrQueueFull
	}
}

// Len reports the number of buffered jobs.
func (q *Queue) Len() int { return len(q.jobs) }

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		observability.FanoutQueueDepth.Set(float64(len(q.jobs)))
		q.run(id, job)
	}
}

func (q *Queue) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Int("worker", id).Uint64("tweet_id", job.TweetID).Interface("panic", r).Msg("fanout worker panic")
		}
	}()
	// Errors are already logged and counted by the runner.
	_ = q.runner.Run(q.ctx, job, BackendInProc)
}

// Close stops accepting jobs and waits for buffered jobs to finish. If ctx
// expires first, running jobs are cancelled and ctx's error is returned.
// Close is idempotent.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
