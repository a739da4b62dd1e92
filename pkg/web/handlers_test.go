package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/delay"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/webhook"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/eventbus"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence/file"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/registry"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/services"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/web"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/workflow"
)

const testTenant = "tenant-1"

type capturePublisher struct {
	published []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return nil
}

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence, *capturePublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterAction(webhook.NewFactory())
	reg.RegisterAction(delay.NewFactory())

	publisher := &capturePublisher{}
	matcher := workflow.NewTriggerMatcher(persistence, logger)
	dispatcher := workflow.NewDispatcher(persistence, publisher, matcher, logger)

	handlers := web.NewAPIHandlers(
		services.NewWorkflow(persistence, reg),
		services.NewHistory(persistence),
		dispatcher,
		validator.New(validator.WithRequiredStructEnabled()),
		reg,
	)

	app := fiber.New()

	w := app.Group("/workflows", web.RequireTenant)
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/toggle", handlers.ToggleWorkflow)
	w.Post("/:id/duplicate", handlers.DuplicateWorkflow)
	w.Post("/:id/executions", handlers.RunWorkflow)

	app.Post("/events", web.RequireTenant, handlers.TriggerEvent)

	e := app.Group("/executions", web.RequireTenant)
	e.Get("/", handlers.GetExecutions)
	e.Get("/stats", handlers.GetStats)
	e.Get("/:id", handlers.GetExecution)

	return app, persistence, publisher
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testTenant)
	req.Header.Set("X-User-ID", "user-1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func validCreateRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:    "Overdue reminder",
		Trigger: models.Trigger{Type: models.TriggerPaymentOverdue},
		Steps: []*models.Step{
			{Order: 1, Action: models.Action{Type: models.ActionCallWebhook, Config: map[string]any{
				"url": "https://hooks.example.com/billing",
			}}},
		},
		IsActive: true,
	}
}

func TestCreateWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[models.WorkflowDefinition](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testTenant, created.TenantID)
	assert.Equal(t, "user-1", created.CreatedBy)
}

func TestCreateWorkflow_RequiresTenantHeader(t *testing.T) {
	app, _, _ := setupTestApp(t)

	data, err := json.Marshal(validCreateRequest())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/workflows/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWorkflow_UnknownTriggerType(t *testing.T) {
	app, _, _ := setupTestApp(t)

	request := validCreateRequest()
	request.Trigger.Type = "document_scanned"

	resp := doJSON(t, app, http.MethodPost, "/workflows/", request)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToggleWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created := decodeBody[models.WorkflowDefinition](t,
		doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest()))

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/toggle", web.ToggleWorkflowRequest{IsActive: false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	toggled := decodeBody[models.WorkflowDefinition](t, resp)
	assert.False(t, toggled.IsActive)
}

func TestDuplicateWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created := decodeBody[models.WorkflowDefinition](t,
		doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest()))

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	duplicate := decodeBody[models.WorkflowDefinition](t, resp)
	assert.NotEqual(t, created.ID, duplicate.ID)
	assert.Equal(t, created.Name+" (copy)", duplicate.Name)
	assert.False(t, duplicate.IsActive)
}

func TestTriggerEvent_QueuesMatchingWorkflows(t *testing.T) {
	app, persistence, publisher := setupTestApp(t)

	created := decodeBody[models.WorkflowDefinition](t,
		doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest()))

	resp := doJSON(t, app, http.MethodPost, "/events", web.TriggerRequest{
		TriggerType: "payment_overdue",
		Payload:     map[string]any{"amount": 1500.0},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	result := decodeBody[web.TriggerResponse](t, resp)
	assert.Equal(t, 1, result.Matched)
	require.Len(t, result.ExecutionIDs, 1)
	assert.Len(t, publisher.published, 1)

	execution, err := persistence.ExecutionByID(context.Background(), testTenant, result.ExecutionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, created.ID, execution.WorkflowID)
	assert.Equal(t, models.ExecutionStatusPending, execution.Status)
}

func TestTriggerEvent_UnknownType(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/events", web.TriggerRequest{
		TriggerType: "document_scanned",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunWorkflow_QueuesDirectly(t *testing.T) {
	app, _, publisher := setupTestApp(t)

	created := decodeBody[models.WorkflowDefinition](t,
		doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest()))

	// Manual runs work for inactive definitions too.
	doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/toggle", web.ToggleWorkflowRequest{IsActive: false})

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/executions", web.RunWorkflowRequest{
		Payload: map[string]any{"source": "manual-test"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	result := decodeBody[web.RunWorkflowResponse](t, resp)
	assert.NotEmpty(t, result.ExecutionID)
	assert.Len(t, publisher.published, 1)
}

func TestExecutionsListingAndStats(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	created := decodeBody[models.WorkflowDefinition](t,
		doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest()))

	runResp := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/executions", nil)
	require.Equal(t, http.StatusAccepted, runResp.StatusCode)
	run := decodeBody[web.RunWorkflowResponse](t, runResp)

	listResp := doJSON(t, app, http.MethodGet, "/executions/?workflow_id="+created.ID, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	list := decodeBody[services.ListExecutionsResponse](t, listResp)
	assert.Equal(t, int64(1), list.TotalCount)

	getResp := doJSON(t, app, http.MethodGet, "/executions/"+run.ExecutionID, nil)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	statsResp := doJSON(t, app, http.MethodGet, "/executions/stats", nil)
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	stats := decodeBody[models.ExecutionStats](t, statsResp)
	assert.Equal(t, int64(1), stats.TotalExecutions)
	assert.Equal(t, int64(1), stats.TotalWorkflows)

	_, err := persistence.ExecutionByID(context.Background(), testTenant, run.ExecutionID)
	require.NoError(t, err)
}

func TestDeleteWorkflow_KeepsHistory(t *testing.T) {
	app, _, _ := setupTestApp(t)

	created := decodeBody[models.WorkflowDefinition](t,
		doJSON(t, app, http.MethodPost, "/workflows/", validCreateRequest()))

	runResp := doJSON(t, app, http.MethodPost, "/workflows/"+created.ID+"/executions", nil)
	require.Equal(t, http.StatusAccepted, runResp.StatusCode)
	run := decodeBody[web.RunWorkflowResponse](t, runResp)

	deleteResp := doJSON(t, app, http.MethodDelete, "/workflows/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, deleteResp.StatusCode)

	// History survives with the denormalized name.
	getResp := doJSON(t, app, http.MethodGet, "/executions/"+run.ExecutionID, nil)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	execution := decodeBody[models.WorkflowExecution](t, getResp)
	assert.Equal(t, created.Name, execution.WorkflowName)
}
