// Package workflow contains the engine core: trigger matching, execution
// dispatch, and the step interpreter.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/conditions"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
)

// TriggerMatcher resolves which of a tenant's definitions react to an event.
type TriggerMatcher struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewTriggerMatcher creates a trigger matcher.
func NewTriggerMatcher(p persistence.Persistence, logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		persistence: p,
		logger:      logger.With("module", "trigger_matcher"),
	}
}

// MatchForEvent returns the tenant's active definitions of the given trigger
// type whose static condition maps are satisfied by the event payload.
// Matches are independent: each produces its own execution, and one event
// may match zero, one, or many definitions.
func (m *TriggerMatcher) MatchForEvent(ctx context.Context, tenantID string, triggerType models.TriggerType, payload map[string]any) ([]*models.WorkflowDefinition, error) {
	active := true

	candidates, err := m.persistence.Workflows(ctx, tenantID, persistence.WorkflowFilter{
		IsActive:    &active,
		TriggerType: &triggerType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate workflows: %w", err)
	}

	matched := make([]*models.WorkflowDefinition, 0, len(candidates))

	for _, candidate := range candidates {
		if conditions.MatchesTriggerConditions(candidate.Trigger.Conditions, payload) {
			matched = append(matched, candidate)
		}
	}

	m.logger.Debug("Matched trigger event",
		"tenant_id", tenantID,
		"trigger_type", triggerType,
		"candidates", len(candidates),
		"matched", len(matched))

	return matched, nil
}
