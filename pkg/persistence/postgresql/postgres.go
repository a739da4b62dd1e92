// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
}

// NewPersistence opens the database, runs migrations, and returns a ready
// persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workflowRepo:  NewWorkflowRepository(database, logger),
		executionRepo: NewExecutionRepository(database, logger),
	}, nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger_type TEXT NOT NULL,
				trigger_conditions JSONB NOT NULL DEFAULT '{}',
				steps JSONB NOT NULL DEFAULT '[]',
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				created_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				execution_count BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_tenant_trigger
				ON workflows (tenant_id, trigger_type);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS workflow_executions (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL,
				workflow_name TEXT NOT NULL DEFAULT '',
				tenant_id TEXT NOT NULL,
				status TEXT NOT NULL,
				trigger_event JSONB NOT NULL DEFAULT '{}',
				step_results JSONB NOT NULL DEFAULT '[]',
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				duration_ms BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX IF NOT EXISTS idx_executions_tenant_workflow
				ON workflow_executions (tenant_id, workflow_id, created_at DESC);
		`,
	}
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context, tenantID string, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	return p.workflowRepo.List(ctx, tenantID, filter)
}

func (p *Persistence) WorkflowByID(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error) {
	return p.workflowRepo.GetByID(ctx, tenantID, id)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowDefinition) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, tenantID, id string) error {
	return p.workflowRepo.Delete(ctx, tenantID, id)
}

func (p *Persistence) TouchWorkflowExecuted(ctx context.Context, tenantID, id string, at time.Time) error {
	return p.workflowRepo.TouchExecuted(ctx, tenantID, id, at)
}

func (p *Persistence) CreateExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.executionRepo.Create(ctx, execution)
}

func (p *Persistence) ExecutionByID(ctx context.Context, tenantID, id string) (*models.WorkflowExecution, error) {
	return p.executionRepo.GetByID(ctx, tenantID, id)
}

func (p *Persistence) MarkExecutionRunning(ctx context.Context, tenantID, id string, startedAt time.Time) (bool, error) {
	return p.executionRepo.MarkRunning(ctx, tenantID, id, startedAt)
}

func (p *Persistence) FinishExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	return p.executionRepo.Finish(ctx, execution)
}

func (p *Persistence) ListExecutions(ctx context.Context, tenantID string, filter persistence.ExecutionFilter) ([]*models.WorkflowExecution, int64, error) {
	return p.executionRepo.List(ctx, tenantID, filter)
}

func (p *Persistence) ExecutionStats(ctx context.Context, tenantID string) (*models.ExecutionStats, error) {
	return p.executionRepo.Stats(ctx, tenantID)
}
