// Package sendemail implements the send_email action. Delivery itself is the
// CRM core's job; the action hands the rendered message to a Mailer and
// reports the acceptance receipt as its output.
package sendemail

import (
	"context"
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

// Mailer is the narrow collaborator contract for outbound email.
type Mailer interface {
	SendEmail(ctx context.Context, tenantID string, message nexo.EmailMessage) (*nexo.EmailReceipt, error)
}

const schema = `{
	"type": "object",
	"required": ["to", "subject", "body"],
	"properties": {
		"to": {"type": "string", "minLength": 1},
		"subject": {"type": "string", "minLength": 1},
		"body": {"type": "string"}
	}
}`

type Factory struct {
	mailer Mailer
}

func NewFactory(mailer Mailer) *Factory {
	return &Factory{mailer: mailer}
}

func (*Factory) ID() models.ActionType {
	return models.ActionSendEmail
}

func (*Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	to, _ := config["to"].(string)
	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	if to == "" {
		return nil, protocol.NewActionError(models.ActionSendEmail, "recipient is required", nil)
	}

	return &Action{
		mailer: f.mailer,
		message: nexo.EmailMessage{
			To:      to,
			Subject: subject,
			Body:    body,
		},
	}, nil
}

type Action struct {
	mailer  Mailer
	message nexo.EmailMessage
}

func (a *Action) Execute(ctx context.Context, tenantID string, logger *slog.Logger) (any, error) {
	logger.Info("Sending email", "to", a.message.To, "subject", a.message.Subject)

	receipt, err := a.mailer.SendEmail(ctx, tenantID, a.message)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionSendEmail, "failed to send email", err)
	}

	return map[string]any{
		"message_id":  receipt.MessageID,
		"to":          receipt.To,
		"accepted_at": receipt.AcceptedAt,
	}, nil
}
