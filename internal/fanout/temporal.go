package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/tbourn/go-feed-backend/internal/observability"
)

// WorkflowParams is the input of FanoutWorkflow.
type WorkflowParams struct {
	Job      Job           `json:"job"`
	Deadline time.Duration `json:"deadline"`
}

// FanoutWorkflow runs the fanout activity exactly once under the job
// deadline. A failed or timed-out job is not retried.
func FanoutWorkflow(ctx workflow.Context, params WorkflowParams) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting fanout workflow", "tweetID", params.Job.TweetID, "authorID", params.Job.AuthorID)

	deadline := params.Deadline
	if deadline <= 0 {
		deadline = time.Hour
	}
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: deadline,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	activityCtx := workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities
	if err := workflow.ExecuteActivity(activityCtx, a.Fanout, params.Job).Get(ctx, nil); err != nil {
		logger.Error("Fanout activity failed", "tweetID", params.Job.TweetID, "error", err)
		return err
	}
	logger.Info("Fanout workflow completed", "tweetID", params.Job.TweetID)
	return nil
}

// Activities hosts the fanout activity on a Temporal worker.
type Activities struct {
	Runner Runner
}

// Fanout runs the job through the engine. Failures are non-retryable.
func (a *Activities) Fanout(ctx context.Context, job Job) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.Runner == nil {
		logger.Error("Activity dependencies not set")
		return temporal.NewNonRetryableApplicationError("activity dependencies not initialized", "DependencyError", nil)
	}
	if err := a.Runner.Run(ctx, job, BackendTemporal); err != nil {
		return temporal.NewNonRetryableApplicationError("fanout failed", "FanoutFailed", err)
	}
	return nil
}

// TemporalDispatcher starts one FanoutWorkflow per job. The workflow ID is
// derived from the tweet, so a second dispatch for the same tweet while the
// first is running is a no-op.
type TemporalDispatcher struct {
	Client    client.Client
	TaskQueue string
	Deadline  time.Duration
	Log       zerolog.Logger
}

// Dispatch implements Dispatcher.
func (d *TemporalDispatcher) Dispatch(ctx context.Context, job Job) error {
	options := client.StartWorkflowOptions{
		ID:        job.Key(),
		TaskQueue: d.TaskQueue,
	}
	params := WorkflowParams{Job: job, Deadline: d.Deadline}

	if _, err := d.Client.ExecuteWorkflow(ctx, options, FanoutWorkflow, params); err != nil {
		// Distinguish AlreadyStarted (benign) vs real failure
		if temporal.IsWorkflowExecutionAlreadyStartedError(err) {
			d.Log.Info().Str("workflow_id", options.ID).Msg("fanout workflow already started")
			return nil
		}
		observability.FanoutJobs.WithLabelValues(BackendTemporal, observability.FanoutRejected).Inc()
		return fmt.Errorf("execute workflow %s: %w", options.ID, err)
	}
	return nil
}

// NewWorker builds a Temporal worker hosting FanoutWorkflow and its activity
// on taskQueue. The caller starts and stops it.
func NewWorker(c client.Client, taskQueue string, runner Runner) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(FanoutWorkflow)
	w.RegisterActivity(&Activities{Runner: runner})
	return w
}
