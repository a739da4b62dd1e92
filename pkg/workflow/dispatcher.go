package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/eventbus"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/events"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
)

// Dispatcher decouples event producers from execution: it records the
// execution row, then hands the job to the durable queue. The row always
// exists before the job becomes visible, so a worker that dequeues it can
// always load it.
type Dispatcher struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	matcher     *TriggerMatcher
	logger      *slog.Logger
}

// NewDispatcher creates an execution dispatcher.
func NewDispatcher(p persistence.Persistence, publisher eventbus.EventPublisher, matcher *TriggerMatcher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		publisher:   publisher,
		matcher:     matcher,
		logger:      logger.With("module", "dispatcher"),
	}
}

// Enqueue creates a pending execution for one definition and queues its job.
// Returns the execution id immediately; the interpreter picks the job up
// asynchronously.
func (d *Dispatcher) Enqueue(ctx context.Context, tenantID, workflowID string, payload map[string]any) (string, error) {
	workflow, err := d.persistence.WorkflowByID(ctx, tenantID, workflowID)
	if err != nil {
		return "", err
	}

	executionID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate execution ID: %w", err)
	}

	execution := &models.WorkflowExecution{
		ID:           executionID.String(),
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		TenantID:     tenantID,
		Status:       models.ExecutionStatusPending,
		TriggerEvent: payload,
		CreatedAt:    time.Now().UTC(),
	}

	// Row first, then enqueue.
	if err := d.persistence.CreateExecution(ctx, execution); err != nil {
		return "", fmt.Errorf("failed to create execution: %w", err)
	}

	job := events.ExecutionQueued{
		BaseEvent:      events.NewBaseEvent(events.ExecutionQueuedEvent),
		TenantID:       tenantID,
		WorkflowID:     workflow.ID,
		ExecutionID:    execution.ID,
		TriggerPayload: payload,
		Attempt:        1,
	}

	if err := d.publisher.Publish(ctx, execution.ID, job); err != nil {
		return "", fmt.Errorf("failed to enqueue execution job: %w", err)
	}

	d.logger.Info("Queued workflow execution",
		"tenant_id", tenantID,
		"workflow_id", workflow.ID,
		"execution_id", execution.ID)

	return execution.ID, nil
}

// DispatchEvent is the trigger API entry point: it matches the event against
// the tenant's definitions and queues one independent execution per match.
func (d *Dispatcher) DispatchEvent(ctx context.Context, tenantID string, triggerType models.TriggerType, payload map[string]any) ([]string, error) {
	if !models.IsKnownTriggerType(triggerType) {
		return nil, fmt.Errorf("unknown trigger type '%s'", triggerType)
	}

	matched, err := d.matcher.MatchForEvent(ctx, tenantID, triggerType, payload)
	if err != nil {
		return nil, err
	}

	executionIDs := make([]string, 0, len(matched))

	for _, workflow := range matched {
		executionID, err := d.Enqueue(ctx, tenantID, workflow.ID, payload)
		if err != nil {
			return executionIDs, fmt.Errorf("failed to enqueue workflow %s: %w", workflow.ID, err)
		}

		executionIDs = append(executionIDs, executionID)
	}

	return executionIDs, nil
}
