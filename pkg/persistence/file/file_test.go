package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
)

func seedExecution(t *testing.T, p *Persistence, id string, status models.ExecutionStatus) *models.WorkflowExecution {
	t.Helper()

	execution := &models.WorkflowExecution{
		ID:           id,
		WorkflowID:   "wf-1",
		WorkflowName: "seeded",
		TenantID:     "tenant-1",
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, p.CreateExecution(context.Background(), execution))

	return execution
}

func TestWorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	wf := &models.WorkflowDefinition{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "Welcome email",
		Trigger:  models.Trigger{Type: models.TriggerClientCreated},
		Steps: []*models.Step{
			{Order: 1, Action: models.Action{Type: models.ActionSendEmail, Config: map[string]any{
				"to": "{{client.email}}",
			}}},
		},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, p.SaveWorkflow(ctx, wf))

	loaded, err := p.WorkflowByID(ctx, "tenant-1", "wf-1")
	require.NoError(t, err)
	assert.Equal(t, wf.Name, loaded.Name)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, models.ActionSendEmail, loaded.Steps[0].Action.Type)
}

func TestTenantScopingFailsClosed(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	wf := &models.WorkflowDefinition{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "Private",
		Trigger:  models.Trigger{Type: models.TriggerManual},
	}
	require.NoError(t, p.SaveWorkflow(ctx, wf))

	// The wrong tenant sees "not found", identical to a missing row.
	_, err := p.WorkflowByID(ctx, "tenant-2", "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	workflows, err := p.Workflows(ctx, "tenant-2", persistence.WorkflowFilter{})
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestWorkflowsFilter(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	save := func(id string, triggerType models.TriggerType, active bool) {
		require.NoError(t, p.SaveWorkflow(ctx, &models.WorkflowDefinition{
			ID:       id,
			TenantID: "tenant-1",
			Name:     id,
			Trigger:  models.Trigger{Type: triggerType},
			IsActive: active,
		}))
	}

	save("a", models.TriggerClientCreated, true)
	save("b", models.TriggerClientCreated, false)
	save("c", models.TriggerInvoicePaid, true)

	active := true
	trigger := models.TriggerClientCreated

	workflows, err := p.Workflows(ctx, "tenant-1", persistence.WorkflowFilter{
		IsActive:    &active,
		TriggerType: &trigger,
	})
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "a", workflows[0].ID)
}

func TestMarkExecutionRunningResetsTrail(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	execution := seedExecution(t, p, "exec-1", models.ExecutionStatusPending)
	execution.StepResults = []models.StepResult{{StepOrder: 1, Status: models.StepStatusFailed}}
	execution.Error = "previous attempt"
	require.NoError(t, p.CreateExecution(ctx, execution))

	startedAt := time.Now().UTC()

	claimed, err := p.MarkExecutionRunning(ctx, "tenant-1", "exec-1", startedAt)
	require.NoError(t, err)
	require.True(t, claimed)

	reloaded, err := p.ExecutionByID(ctx, "tenant-1", "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, reloaded.Status)
	assert.Empty(t, reloaded.StepResults)
	assert.Empty(t, reloaded.Error)
	require.NotNil(t, reloaded.StartedAt)
}

func TestMarkExecutionRunningRefusesTerminal(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	seedExecution(t, p, "exec-1", models.ExecutionStatusCompleted)

	claimed, err := p.MarkExecutionRunning(ctx, "tenant-1", "exec-1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestMarkExecutionRunningMissingRow(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.MarkExecutionRunning(context.Background(), "tenant-1", "absent", time.Now().UTC())
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestFinishExecutionRefusesTerminalRow(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	execution := seedExecution(t, p, "exec-1", models.ExecutionStatusCompleted)
	execution.Status = models.ExecutionStatusFailed

	err := p.FinishExecution(ctx, execution)
	assert.ErrorIs(t, err, persistence.ErrExecutionTerminal)

	reloaded, err := p.ExecutionByID(ctx, "tenant-1", "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, reloaded.Status)
}

func TestListExecutionsFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	base := time.Now().UTC()

	for i, status := range []models.ExecutionStatus{
		models.ExecutionStatusCompleted,
		models.ExecutionStatusFailed,
		models.ExecutionStatusCompleted,
	} {
		require.NoError(t, p.CreateExecution(ctx, &models.WorkflowExecution{
			ID:         []string{"exec-0", "exec-1", "exec-2"}[i],
			WorkflowID: "wf-1",
			TenantID:   "tenant-1",
			Status:     status,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	require.NoError(t, p.CreateExecution(ctx, &models.WorkflowExecution{
		ID:         "exec-other",
		WorkflowID: "wf-2",
		TenantID:   "tenant-1",
		Status:     models.ExecutionStatusCompleted,
		CreatedAt:  base,
	}))

	executions, total, err := p.ListExecutions(ctx, "tenant-1", persistence.ExecutionFilter{WorkflowID: "wf-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, executions, 3)
	assert.Equal(t, "exec-2", executions[0].ID)

	completed := models.ExecutionStatusCompleted

	executions, total, err = p.ListExecutions(ctx, "tenant-1", persistence.ExecutionFilter{
		WorkflowID: "wf-1",
		Status:     &completed,
		Limit:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, executions, 1)
	assert.Equal(t, "exec-2", executions[0].ID)
}

func TestTouchWorkflowExecuted(t *testing.T) {
	ctx := context.Background()
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.SaveWorkflow(ctx, &models.WorkflowDefinition{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "Counter",
		Trigger:  models.Trigger{Type: models.TriggerManual},
	}))

	at := time.Now().UTC()
	require.NoError(t, p.TouchWorkflowExecuted(ctx, "tenant-1", "wf-1", at))
	require.NoError(t, p.TouchWorkflowExecuted(ctx, "tenant-1", "wf-1", at))

	wf, err := p.WorkflowByID(ctx, "tenant-1", "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), wf.ExecutionCount)
	require.NotNil(t, wf.LastExecutedAt)
}
