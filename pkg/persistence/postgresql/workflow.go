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

// WorkflowRepository handles workflow definition rows.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , tenant_id
  , name
  , description
  , trigger_type
  , trigger_conditions
  , steps
  , is_active
  , created_by
  , created_at
  , updated_at
  , last_executed_at
  , execution_count
`

// List returns a tenant's definitions, optionally narrowed by active flag
// and trigger type, newest first.
func (r *WorkflowRepository) List(ctx context.Context, tenantID string, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}

	if filter.TriggerType != nil {
		args = append(args, string(*filter.TriggerType))
		query += fmt.Sprintf(" AND trigger_type = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns one definition. Lookups outside the tenant report
// persistence.ErrWorkflowNotFound.
func (r *WorkflowRepository) GetByID(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE tenant_id = $1 AND id = $2`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save upserts a definition.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDefinition) error {
	conditionsJSON, err := json.Marshal(workflow.Trigger.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger conditions: %w", err)
	}

	stepsJSON, err := json.Marshal(workflow.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		INSERT INTO workflows (id, tenant_id, name, description, trigger_type, trigger_conditions,
			steps, is_active, created_by, created_at, updated_at, last_executed_at, execution_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger_type = EXCLUDED.trigger_type,
			trigger_conditions = EXCLUDED.trigger_conditions,
			steps = EXCLUDED.steps,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		WHERE workflows.tenant_id = EXCLUDED.tenant_id
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.TenantID,
		workflow.Name,
		workflow.Description,
		string(workflow.Trigger.Type),
		conditionsJSON,
		stepsJSON,
		workflow.IsActive,
		workflow.CreatedBy,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.LastExecutedAt,
		workflow.ExecutionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

// Delete removes a definition. Execution rows are intentionally left in
// place; they carry their own snapshot of the workflow name.
func (r *WorkflowRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

// TouchExecuted stamps last_executed_at and bumps the execution counter.
func (r *WorkflowRepository) TouchExecuted(ctx context.Context, tenantID, id string, at time.Time) error {
	query := `
		UPDATE workflows
		SET last_executed_at = $3, execution_count = execution_count + 1
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query, tenantID, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch workflow: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		workflow       models.WorkflowDefinition
		triggerType    string
		conditionsJSON []byte
		stepsJSON      []byte
		lastExecutedAt sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.TenantID,
		&workflow.Name,
		&workflow.Description,
		&triggerType,
		&conditionsJSON,
		&stepsJSON,
		&workflow.IsActive,
		&workflow.CreatedBy,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&lastExecutedAt,
		&workflow.ExecutionCount,
	)
	if err != nil {
		return nil, err
	}

	workflow.Trigger.Type = models.TriggerType(triggerType)

	if err := json.Unmarshal(conditionsJSON, &workflow.Trigger.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger conditions: %w", err)
	}

	if err := json.Unmarshal(stepsJSON, &workflow.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	if lastExecutedAt.Valid {
		workflow.LastExecutedAt = &lastExecutedAt.Time
	}

	return &workflow, nil
}
