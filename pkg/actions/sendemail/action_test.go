package sendemail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

type fakeMailer struct {
	lastTenant  string
	lastMessage nexo.EmailMessage
	err         error
}

func (m *fakeMailer) SendEmail(_ context.Context, tenantID string, message nexo.EmailMessage) (*nexo.EmailReceipt, error) {
	m.lastTenant = tenantID
	m.lastMessage = message

	if m.err != nil {
		return nil, m.err
	}

	return &nexo.EmailReceipt{
		MessageID:  "msg-1",
		To:         message.To,
		AcceptedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFactory_RequiresRecipient(t *testing.T) {
	_, err := NewFactory(&fakeMailer{}).Create(map[string]any{"subject": "hi"})
	require.Error(t, err)
}

func TestExecute_DeliversThroughMailer(t *testing.T) {
	mailer := &fakeMailer{}

	action, err := NewFactory(mailer).Create(map[string]any{
		"to":      "ana@example.com",
		"subject": "Fatura vencida",
		"body":    "Olá Ana",
	})
	require.NoError(t, err)

	output, err := action.Execute(context.Background(), "tenant-1", testLogger())
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", mailer.lastTenant)
	assert.Equal(t, "ana@example.com", mailer.lastMessage.To)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "msg-1", result["message_id"])
	assert.Equal(t, "ana@example.com", result["to"])
}

func TestExecute_MailerFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp unavailable")}

	action, err := NewFactory(mailer).Create(map[string]any{"to": "ana@example.com"})
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), "tenant-1", testLogger())
	require.Error(t, err)

	var actionErr *protocol.ActionError

	assert.ErrorAs(t, err, &actionErr)
}
