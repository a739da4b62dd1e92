package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/delay"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/webhook"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence/file"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/registry"
)

const testTenant = "tenant-1"

func newTestService(t *testing.T) (*Workflow, *file.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewRegistry(logger)
	reg.RegisterAction(webhook.NewFactory())
	reg.RegisterAction(delay.NewFactory())

	p := file.NewPersistence(t.TempDir())

	return NewWorkflow(p, reg), p
}

func validWorkflow() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		TenantID: testTenant,
		Name:     "Overdue payment reminder",
		Trigger:  models.Trigger{Type: models.TriggerPaymentOverdue},
		Steps: []*models.Step{
			{Order: 1, Action: models.Action{Type: models.ActionCallWebhook, Config: map[string]any{
				"url": "https://hooks.example.com/billing",
			}}},
		},
		IsActive: true,
	}
}

func TestWorkflowService_Create(t *testing.T) {
	ctx := context.Background()
	service, p := newTestService(t)

	created, err := service.Create(ctx, validWorkflow())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Zero(t, created.ExecutionCount)

	stored, err := p.WorkflowByID(ctx, testTenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)
}

func TestWorkflowService_CreateRejectsUnknownTriggerType(t *testing.T) {
	service, _ := newTestService(t)

	wf := validWorkflow()
	wf.Trigger.Type = "document_scanned"

	_, err := service.Create(context.Background(), wf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTriggerType)
	assert.True(t, IsValidationError(err))
}

func TestWorkflowService_CreateRejectsUnknownActionType(t *testing.T) {
	service, _ := newTestService(t)

	wf := validWorkflow()
	wf.Steps[0].Action.Type = "teleport"

	_, err := service.Create(context.Background(), wf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownActionType)
}

func TestWorkflowService_CreateValidatesActionConfig(t *testing.T) {
	service, _ := newTestService(t)

	wf := validWorkflow()
	wf.Steps = []*models.Step{
		{Order: 1, Action: models.Action{Type: models.ActionDelay, Config: map[string]any{}}},
	}

	_, err := service.Create(context.Background(), wf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidActionConfig)
}

func TestWorkflowService_TemplatedConfigSkipsSchemaCheck(t *testing.T) {
	service, _ := newTestService(t)

	wf := validWorkflow()
	wf.Steps = []*models.Step{
		{Order: 1, Action: models.Action{Type: models.ActionCallWebhook, Config: map[string]any{
			"url": "{{integration.webhook_url}}",
		}}},
	}

	_, err := service.Create(context.Background(), wf)
	require.NoError(t, err)
}

func TestWorkflowService_CreateRequiresSteps(t *testing.T) {
	service, _ := newTestService(t)

	wf := validWorkflow()
	wf.Steps = nil

	_, err := service.Create(context.Background(), wf)
	assert.ErrorIs(t, err, ErrStepsRequired)
}

func TestWorkflowService_ConditionStepNeedsField(t *testing.T) {
	service, _ := newTestService(t)

	wf := validWorkflow()
	wf.Steps = []*models.Step{
		{
			Order:  1,
			Action: models.Action{Type: models.ActionCondition, Config: map[string]any{}},
			Children: []*models.Step{
				{Order: 1, Action: models.Action{Type: models.ActionCallWebhook, Config: map[string]any{
					"url": "https://hooks.example.com",
				}}},
			},
		},
	}

	_, err := service.Create(context.Background(), wf)
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestWorkflowService_UpdatePreservesMetadata(t *testing.T) {
	ctx := context.Background()
	service, p := newTestService(t)

	created, err := service.Create(ctx, validWorkflow())
	require.NoError(t, err)

	// Simulate past runs.
	require.NoError(t, p.TouchWorkflowExecuted(ctx, testTenant, created.ID, created.CreatedAt))

	update := validWorkflow()
	update.Name = "Renamed reminder"

	updated, err := service.Update(ctx, testTenant, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Renamed reminder", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, int64(1), updated.ExecutionCount)
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt) || updated.UpdatedAt.Equal(created.CreatedAt))
}

func TestWorkflowService_Duplicate(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	source := validWorkflow()
	source.IsActive = true

	created, err := service.Create(ctx, source)
	require.NoError(t, err)

	duplicate, err := service.Duplicate(ctx, testTenant, created.ID, "user-2")
	require.NoError(t, err)

	assert.NotEqual(t, created.ID, duplicate.ID)
	assert.Equal(t, created.Name+" (copy)", duplicate.Name)
	assert.False(t, duplicate.IsActive)
	assert.Equal(t, "user-2", duplicate.CreatedBy)
	assert.Zero(t, duplicate.ExecutionCount)
	require.Len(t, duplicate.Steps, 1)

	// The copy is deep: mutating it leaves the source untouched.
	duplicate.Steps[0].Action.Config["url"] = "https://changed.example.com"

	reloaded, err := service.FetchByID(ctx, testTenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/billing", reloaded.Steps[0].Action.Config["url"])
}

func TestWorkflowService_SetActive(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	created, err := service.Create(ctx, validWorkflow())
	require.NoError(t, err)
	require.True(t, created.IsActive)

	toggled, err := service.SetActive(ctx, testTenant, created.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
}

func TestWorkflowService_TenantScoping(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	created, err := service.Create(ctx, validWorkflow())
	require.NoError(t, err)

	_, err = service.FetchByID(ctx, "tenant-2", created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)

	err = service.Delete(ctx, "tenant-2", created.ID)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}
