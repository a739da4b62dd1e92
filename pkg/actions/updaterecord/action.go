// Package updaterecord implements the update_record action: a tenant-scoped
// patch of one CRM core row (case, client, invoice, …). Which tables are
// reachable is the core's policy, not the engine's.
package updaterecord

import (
	"context"
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

// Records is the narrow collaborator contract for record updates.
type Records interface {
	UpdateRecord(ctx context.Context, tenantID, table, id string, updates map[string]any) (map[string]any, error)
}

const schema = `{
	"type": "object",
	"required": ["table", "id", "updates"],
	"properties": {
		"table": {"type": "string", "minLength": 1},
		"id": {"type": "string", "minLength": 1},
		"updates": {"type": "object", "minProperties": 1}
	}
}`

type Factory struct {
	records Records
}

func NewFactory(records Records) *Factory {
	return &Factory{records: records}
}

func (*Factory) ID() models.ActionType {
	return models.ActionUpdateRecord
}

func (*Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	table, _ := config["table"].(string)
	id, _ := config["id"].(string)
	updates, _ := config["updates"].(map[string]any)

	if table == "" || id == "" {
		return nil, protocol.NewActionError(models.ActionUpdateRecord, "table and id are required", nil)
	}

	if len(updates) == 0 {
		return nil, protocol.NewActionError(models.ActionUpdateRecord, "updates must not be empty", nil)
	}

	return &Action{records: f.records, table: table, id: id, updates: updates}, nil
}

type Action struct {
	records Records
	table   string
	id      string
	updates map[string]any
}

func (a *Action) Execute(ctx context.Context, tenantID string, logger *slog.Logger) (any, error) {
	logger.Info("Updating record", "table", a.table, "record_id", a.id)

	updated, err := a.records.UpdateRecord(ctx, tenantID, a.table, a.id, a.updates)
	if err != nil {
		return nil, protocol.NewActionError(models.ActionUpdateRecord, "failed to update record", err)
	}

	return map[string]any{
		"table":  a.table,
		"id":     a.id,
		"record": updated,
	}, nil
}
