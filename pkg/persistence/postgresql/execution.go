package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
)

// ExecutionRepository handles execution rows. Rows transition pending →
// running → completed|failed; the guarded UPDATE statements below are what
// keeps a worker from writing over a terminal row.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , workflow_name
  , tenant_id
  , status
  , trigger_event
  , step_results
  , error
  , created_at
  , started_at
  , completed_at
  , duration_ms
`

// Create inserts a new pending execution row.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	eventJSON, err := json.Marshal(execution.TriggerEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger event: %w", err)
	}

	resultsJSON, err := json.Marshal(execution.StepResults)
	if err != nil {
		return fmt.Errorf("failed to marshal step results: %w", err)
	}

	query := `
		INSERT INTO workflow_executions (id, workflow_id, workflow_name, tenant_id, status,
			trigger_event, step_results, error, created_at, started_at, completed_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.WorkflowName,
		execution.TenantID,
		string(execution.Status),
		eventJSON,
		resultsJSON,
		execution.Error,
		execution.CreatedAt,
		execution.StartedAt,
		execution.CompletedAt,
		execution.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	return nil
}

// GetByID returns one execution, tenant-scoped.
func (r *ExecutionRepository) GetByID(ctx context.Context, tenantID, id string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE tenant_id = $1 AND id = $2`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// MarkRunning transitions pending (or a stale running row from a crashed
// attempt) to running, resetting the step trail for a from-scratch replay.
// Returns false when the row is already terminal.
func (r *ExecutionRepository) MarkRunning(ctx context.Context, tenantID, id string, startedAt time.Time) (bool, error) {
	query := `
		UPDATE workflow_executions
		SET status = 'running', started_at = $3, step_results = '[]', error = ''
		WHERE tenant_id = $1 AND id = $2 AND status IN ('pending', 'running')
	`

	result, err := r.db.ExecContext(ctx, query, tenantID, id, startedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark execution running: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 1 {
		return true, nil
	}

	// Distinguish a terminal row from a missing one.
	_, err = r.GetByID(ctx, tenantID, id)
	if err != nil {
		return false, err
	}

	return false, nil
}

// Finish writes the terminal status and the full step trail. Guarded so a
// late duplicate worker cannot rewrite an already-terminal row.
func (r *ExecutionRepository) Finish(ctx context.Context, execution *models.WorkflowExecution) error {
	resultsJSON, err := json.Marshal(execution.StepResults)
	if err != nil {
		return fmt.Errorf("failed to marshal step results: %w", err)
	}

	query := `
		UPDATE workflow_executions
		SET status = $3, step_results = $4, error = $5, completed_at = $6, duration_ms = $7
		WHERE tenant_id = $1 AND id = $2 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.TenantID,
		execution.ID,
		string(execution.Status),
		resultsJSON,
		execution.Error,
		execution.CompletedAt,
		execution.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to finish execution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrExecutionTerminal
	}

	return nil
}

// List returns a page of a tenant's executions, newest first, plus the total
// match count.
func (r *ExecutionRepository) List(ctx context.Context, tenantID string, filter persistence.ExecutionFilter) ([]*models.WorkflowExecution, int64, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := `WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.WorkflowID != "" {
		args = append(args, filter.WorkflowID)
		where += fmt.Sprintf(" AND workflow_id = $%d", len(args))
	}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64

	countQuery := `SELECT COUNT(*) FROM workflow_executions ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM workflow_executions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		executionColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, total, nil
}

// Stats aggregates a tenant's definition and execution counts.
func (r *ExecutionRepository) Stats(ctx context.Context, tenantID string) (*models.ExecutionStats, error) {
	stats := &models.ExecutionStats{}

	workflowQuery := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM workflows WHERE tenant_id = $1
	`
	if err := r.db.QueryRowContext(ctx, workflowQuery, tenantID).Scan(&stats.TotalWorkflows, &stats.ActiveWorkflows); err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	executionQuery := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM workflow_executions WHERE tenant_id = $1
	`
	if err := r.db.QueryRowContext(ctx, executionQuery, tenantID).Scan(&stats.TotalExecutions, &stats.Completed, &stats.Failed); err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	if finished := stats.Completed + stats.Failed; finished > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(finished)
	}

	return stats, nil
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution   models.WorkflowExecution
		status      string
		eventJSON   []byte
		resultsJSON []byte
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.WorkflowName,
		&execution.TenantID,
		&status,
		&eventJSON,
		&resultsJSON,
		&execution.Error,
		&execution.CreatedAt,
		&startedAt,
		&completedAt,
		&execution.DurationMs,
	)
	if err != nil {
		return nil, err
	}

	execution.Status = models.ExecutionStatus(status)

	if err := json.Unmarshal(eventJSON, &execution.TriggerEvent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger event: %w", err)
	}

	if err := json.Unmarshal(resultsJSON, &execution.StepResults); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step results: %w", err)
	}

	if startedAt.Valid {
		execution.StartedAt = &startedAt.Time
	}

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	return &execution, nil
}
