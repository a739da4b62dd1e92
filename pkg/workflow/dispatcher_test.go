package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/events"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence/file"
)

func TestDispatcher_EnqueueCreatesRowBeforeJob(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	dispatcher := NewDispatcher(p, publisher, NewTriggerMatcher(p, testLogger()), testLogger())

	wf := saveTriggerWorkflow(t, p, "welcome", models.TriggerClientCreated, nil, true)

	payload := map[string]any{"client": map[string]any{"name": "Ana"}}

	executionID, err := dispatcher.Enqueue(ctx, testTenant, wf.ID, payload)
	require.NoError(t, err)
	require.NotEmpty(t, executionID)

	execution, err := p.ExecutionByID(ctx, testTenant, executionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, execution.Status)
	assert.Equal(t, wf.ID, execution.WorkflowID)
	assert.Equal(t, wf.Name, execution.WorkflowName)
	assert.Equal(t, payload, execution.TriggerEvent)

	require.Len(t, publisher.published, 1)
	job, ok := publisher.published[0].(events.ExecutionQueued)
	require.True(t, ok)
	assert.Equal(t, executionID, job.ExecutionID)
	assert.Equal(t, wf.ID, job.WorkflowID)
	assert.Equal(t, 1, job.Attempt)
}

func TestDispatcher_EnqueueUnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	dispatcher := NewDispatcher(p, publisher, NewTriggerMatcher(p, testLogger()), testLogger())

	_, err := dispatcher.Enqueue(ctx, testTenant, "missing", map[string]any{})
	require.Error(t, err)
	assert.Empty(t, publisher.published)
}

func TestDispatcher_DispatchEventFansOut(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	dispatcher := NewDispatcher(p, publisher, NewTriggerMatcher(p, testLogger()), testLogger())

	saveTriggerWorkflow(t, p, "first", models.TriggerInvoicePaid, nil, true)
	saveTriggerWorkflow(t, p, "second", models.TriggerInvoicePaid, nil, true)
	saveTriggerWorkflow(t, p, "unrelated", models.TriggerClientCreated, nil, true)

	executionIDs, err := dispatcher.DispatchEvent(ctx, testTenant, models.TriggerInvoicePaid, map[string]any{
		"invoice": map[string]any{"id": "inv-1"},
	})
	require.NoError(t, err)

	// One independent execution per matching definition.
	assert.Len(t, executionIDs, 2)
	assert.Len(t, publisher.published, 2)
	assert.NotEqual(t, executionIDs[0], executionIDs[1])
}

func TestDispatcher_DispatchEventNoMatches(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	dispatcher := NewDispatcher(p, publisher, NewTriggerMatcher(p, testLogger()), testLogger())

	executionIDs, err := dispatcher.DispatchEvent(ctx, testTenant, models.TriggerTaskCompleted, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, executionIDs)
	assert.Empty(t, publisher.published)
}

func TestDispatcher_DispatchEventRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())
	dispatcher := NewDispatcher(p, &capturePublisher{}, NewTriggerMatcher(p, testLogger()), testLogger())

	_, err := dispatcher.DispatchEvent(ctx, testTenant, models.TriggerType("document_scanned"), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trigger type")
}
