// Package task implements the create_task action against the CRM core's
// task list.
package task

import (
	"context"
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

// Tasks is the narrow collaborator contract for task creation.
type Tasks interface {
	CreateTask(ctx context.Context, tenantID string, input nexo.TaskInput) (*nexo.Task, error)
}

const schema = `{
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"assigneeId": {"type": "string"},
		"dueDate": {"type": "string"},
		"priority": {"type": "string"},
		"caseId": {"type": "string"},
		"clientId": {"type": "string"}
	}
}`

type Factory struct {
	tasks Tasks
}

func NewFactory(tasks Tasks) *Factory {
	return &Factory{tasks: tasks}
}

func (*Factory) ID() models.ActionType {
	return models.ActionCreateTask
}

func (*Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	title, _ := config["title"].(string)
	if title == "" {
		return nil, protocol.NewActionError(models.ActionCreateTask, "title is required", nil)
	}

	input := nexo.TaskInput{Title: title}
	input.Description, _ = config["description"].(string)
	input.AssigneeID, _ = config["assigneeId"].(string)
	input.DueDate, _ = config["dueDate"].(string)
	input.Priority, _ = config["priority"].(string)
	input.CaseID, _ = config["caseId"].(string)
	input.ClientID, _ = config["clientId"].(string)

	return &Action{tasks: f.tasks, input: input}, nil
}

type Action struct {
	tasks Tasks
	input nexo.TaskInput
}

func (a *Action) Execute(ctx context.Context, tenantID string, logger *slog.Logger) (any, error) {
	logger.Info("Creating task", "title", a.input.Title, "assignee_id", a.input.AssigneeID)

	created, err := a.tasks.CreateTask(ctx, tenantID, a.input)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionCreateTask, "failed to create task", err)
	}

	return map[string]any{
		"task_id": created.ID,
		"title":   created.Title,
	}, nil
}
