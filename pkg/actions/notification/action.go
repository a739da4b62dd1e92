// Package notification implements the create_notification action: in-app
// notifications fanned out to one or more users.
package notification

import (
	"context"
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

// Notifier is the narrow collaborator contract for notification creation.
type Notifier interface {
	CreateNotifications(ctx context.Context, tenantID string, input nexo.NotificationInput) ([]nexo.Notification, error)
}

const schema = `{
	"type": "object",
	"required": ["title", "message"],
	"properties": {
		"userId": {"type": "string"},
		"userIds": {"type": "array", "items": {"type": "string"}},
		"title": {"type": "string", "minLength": 1},
		"message": {"type": "string", "minLength": 1},
		"type": {"type": "string"},
		"link": {"type": "string"}
	}
}`

type Factory struct {
	notifier Notifier
}

func NewFactory(notifier Notifier) *Factory {
	return &Factory{notifier: notifier}
}

func (*Factory) ID() models.ActionType {
	return models.ActionCreateNotification
}

func (*Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	input := nexo.NotificationInput{}
	input.Title, _ = config["title"].(string)
	input.Message, _ = config["message"].(string)
	input.Type, _ = config["type"].(string)
	input.Link, _ = config["link"].(string)

	if userID, ok := config["userId"].(string); ok && userID != "" {
		input.UserIDs = append(input.UserIDs, userID)
	}

	if userIDs, ok := config["userIds"].([]any); ok {
		for _, raw := range userIDs {
			if userID, ok := raw.(string); ok && userID != "" {
				input.UserIDs = append(input.UserIDs, userID)
			}
		}
	}

	if input.Title == "" || input.Message == "" {
		return nil, protocol.NewActionError(models.ActionCreateNotification, "title and message are required", nil)
	}

	if len(input.UserIDs) == 0 {
		return nil, protocol.NewActionError(models.ActionCreateNotification, "at least one recipient user is required", nil)
	}

	return &Action{notifier: f.notifier, input: input}, nil
}

type Action struct {
	notifier Notifier
	input    nexo.NotificationInput
}

func (a *Action) Execute(ctx context.Context, tenantID string, logger *slog.Logger) (any, error) {
	logger.Info("Creating notifications", "recipients", len(a.input.UserIDs), "title", a.input.Title)

	created, err := a.notifier.CreateNotifications(ctx, tenantID, a.input)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionCreateNotification, "failed to create notifications", err)
	}

	rows := make([]any, 0, len(created))
	for _, n := range created {
		rows = append(rows, map[string]any{"id": n.ID, "user_id": n.UserID})
	}

	return map[string]any{
		"count":         len(created),
		"notifications": rows,
	}, nil
}
