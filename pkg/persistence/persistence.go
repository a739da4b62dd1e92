// Package persistence defines the storage contract for workflow definitions
// and execution records. Every operation is tenant-scoped: a lookup with the
// wrong tenant behaves exactly like a lookup for a row that does not exist,
// so cross-tenant probing cannot distinguish "forbidden" from "absent".
package persistence

import (
	"context"
	"time"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
)

// WorkflowFilter narrows definition listings.
type WorkflowFilter struct {
	IsActive    *bool
	TriggerType *models.TriggerType
}

// ExecutionFilter narrows execution listings. Zero values mean "no filter";
// Limit defaults are applied by the caller.
type ExecutionFilter struct {
	WorkflowID string
	Status     *models.ExecutionStatus
	Limit      int
	Offset     int
}

type Persistence interface {
	// Definitions.
	Workflows(ctx context.Context, tenantID string, filter WorkflowFilter) ([]*models.WorkflowDefinition, error)
	WorkflowByID(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, tenantID, id string) error

	// TouchWorkflowExecuted stamps last_executed_at and increments the
	// execution counter without rewriting the definition value.
	TouchWorkflowExecuted(ctx context.Context, tenantID, id string, at time.Time) error

	// Executions. Rows are append/transition-only: created pending, advanced
	// by the interpreter, immutable once terminal.
	CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error
	ExecutionByID(ctx context.Context, tenantID, id string) (*models.WorkflowExecution, error)

	// MarkExecutionRunning is a guarded compare-and-set: it transitions a
	// pending (or stale running) row to running and reports false, without
	// error, when the row is already terminal.
	MarkExecutionRunning(ctx context.Context, tenantID, id string, startedAt time.Time) (bool, error)

	// FinishExecution persists the terminal status, full step result trail,
	// top-level error and timing. It refuses to overwrite a terminal row.
	FinishExecution(ctx context.Context, execution *models.WorkflowExecution) error

	// ListExecutions returns a tenant's executions newest first, with the
	// total match count for pagination.
	ListExecutions(ctx context.Context, tenantID string, filter ExecutionFilter) ([]*models.WorkflowExecution, int64, error)
	ExecutionStats(ctx context.Context, tenantID string) (*models.ExecutionStats, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
