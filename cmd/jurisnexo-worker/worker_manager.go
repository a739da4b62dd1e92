package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/eventbus"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/events"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/workflow"
)

const (
	defaultMaxAttempts = 3
	claimTTL           = 5 * time.Minute
)

// RetryPolicy controls queue-level redelivery of failed jobs. Retries always
// reuse the original execution id, so a retried run replaces the earlier
// attempt's step trail instead of appending a new row.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// Backoff returns the delay before the given (1-based) attempt is requeued.
func (r RetryPolicy) Backoff(attempt int) time.Duration {
	return r.BaseBackoff << (attempt - 1)
}

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	claim       workflow.ExecutionClaim
	executor    *workflow.Executor
	retry       RetryPolicy
}

func NewWorkerManager(
	id string,
	p persistence.Persistence,
	eventBus eventbus.EventBus,
	claim workflow.ExecutionClaim,
	executor *workflow.Executor,
	logger *slog.Logger,
	retry RetryPolicy,
) *WorkerManager {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}

	if retry.BaseBackoff <= 0 {
		retry.BaseBackoff = 5 * time.Second
	}

	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "jurisnexo-worker", "worker_id", id),
		persistence: p,
		eventBus:    eventBus,
		claim:       claim,
		executor:    executor,
		retry:       retry,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	w.eventBus.Handle(events.ExecutionQueuedEvent, w.handleExecutionQueued)

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleExecutionQueued(ctx context.Context, event any) error {
	job, ok := event.(*events.ExecutionQueued)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionQueued")

		return nil
	}

	logger := w.logger.With(
		"tenant_id", job.TenantID,
		"workflow_id", job.WorkflowID,
		"execution_id", job.ExecutionID,
		"attempt", job.Attempt,
	)
	logger.InfoContext(ctx, "Processing execution job")

	err := w.claim.WithClaim(ctx, job.ExecutionID, claimTTL, func(ctx context.Context) error {
		return w.executor.Run(ctx, job)
	})

	if errors.Is(err, workflow.ErrAlreadyClaimed) {
		logger.InfoContext(ctx, "Execution claimed by another worker, dropping job")

		return nil
	}

	if err != nil {
		return w.retryOrFail(ctx, logger, job, err)
	}

	w.announceOutcome(ctx, logger, job)

	return nil
}

// retryOrFail handles infrastructure failures: requeue with a bumped attempt
// counter until the budget runs out, then mark the execution failed. The
// original message is acked either way; redelivery happens through the new
// message, not a broker nack.
func (w *WorkerManager) retryOrFail(ctx context.Context, logger *slog.Logger, job *events.ExecutionQueued, runErr error) error {
	if job.Attempt >= w.retry.MaxAttempts {
		logger.ErrorContext(ctx, "Execution failed after final attempt", "error", runErr)

		w.failExecution(ctx, logger, job, runErr)

		return nil
	}

	backoff := w.retry.Backoff(job.Attempt)
	logger.WarnContext(ctx, "Execution attempt failed, requeueing",
		"error", runErr,
		"backoff", backoff,
		"next_attempt", job.Attempt+1)

	retried := *job
	retried.BaseEvent = events.NewBaseEvent(events.ExecutionQueuedEvent)
	retried.WorkerID = w.id
	retried.Attempt = job.Attempt + 1

	time.AfterFunc(backoff, func() {
		if err := w.eventBus.Publish(context.Background(), retried.ExecutionID, retried); err != nil {
			logger.Error("Failed to requeue execution, marking failed", "error", err)

			w.failExecution(context.Background(), logger, job, runErr)
		}
	})

	return nil
}

func (w *WorkerManager) failExecution(ctx context.Context, logger *slog.Logger, job *events.ExecutionQueued, runErr error) {
	execution, err := w.persistence.ExecutionByID(ctx, job.TenantID, job.ExecutionID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load execution for failure record", "error", err)

		return
	}

	if execution.Status.IsTerminal() {
		return
	}

	completedAt := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.Error = runErr.Error()
	execution.CompletedAt = &completedAt

	if execution.StartedAt != nil {
		execution.DurationMs = completedAt.Sub(*execution.StartedAt).Milliseconds()
	}

	if err := w.persistence.FinishExecution(ctx, execution); err != nil &&
		!errors.Is(err, persistence.ErrExecutionTerminal) {
		logger.ErrorContext(ctx, "Failed to persist execution failure", "error", err)

		return
	}

	failed := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent),
		TenantID:    job.TenantID,
		WorkflowID:  job.WorkflowID,
		ExecutionID: job.ExecutionID,
		Error:       runErr.Error(),
	}
	failed.WorkerID = w.id

	if err := w.eventBus.Publish(ctx, job.ExecutionID, failed); err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution failed event", "error", err)
	}
}

// announceOutcome publishes the terminal event for observers once the
// interpreter has settled the run.
func (w *WorkerManager) announceOutcome(ctx context.Context, logger *slog.Logger, job *events.ExecutionQueued) {
	execution, err := w.persistence.ExecutionByID(ctx, job.TenantID, job.ExecutionID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load execution outcome", "error", err)

		return
	}

	var outcome eventbus.Event

	switch execution.Status {
	case models.ExecutionStatusCompleted:
		completed := events.ExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent),
			TenantID:    job.TenantID,
			WorkflowID:  job.WorkflowID,
			ExecutionID: job.ExecutionID,
			DurationMs:  execution.DurationMs,
		}
		completed.WorkerID = w.id
		outcome = completed
	case models.ExecutionStatusFailed:
		failed := events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent),
			TenantID:    job.TenantID,
			WorkflowID:  job.WorkflowID,
			ExecutionID: job.ExecutionID,
			Error:       execution.Error,
		}
		failed.WorkerID = w.id
		outcome = failed
	default:
		return
	}

	if err := w.eventBus.Publish(ctx, job.ExecutionID, outcome); err != nil {
		logger.ErrorContext(ctx, "Failed to publish execution outcome event", "error", err)
	}
}
