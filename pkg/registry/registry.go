// Package registry maps action types to their factories. New capabilities
// register at startup; the interpreter never needs modification to gain one.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[models.ActionType]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[models.ActionType]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction instantiates an action for one step from its resolved config.
// Unknown types surface as errors the interpreter records as failed steps.
func (r *Registry) CreateAction(actionType models.ActionType, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", actionType)
	}

	return factory.Create(config)
}

// IsActionRegistered checks if an action type is registered.
func (r *Registry) IsActionRegistered(actionType models.ActionType) bool {
	_, exists := r.actionFactories[actionType]

	return exists
}

// ValidateActionConfig checks a raw (unresolved) step config against the
// action's JSON schema. Called at definition save time so malformed configs
// never reach a worker. Template placeholders are allowed anywhere a string
// is; schemas therefore constrain shape, not placeholder contents.
func (r *Registry) ValidateActionConfig(actionType models.ActionType, config map[string]any) error {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return fmt.Errorf("action type '%s' not registered", actionType)
	}

	schema := factory.Schema()
	if schema == "" {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate action config: %w", err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("invalid config for action '%s': %s", actionType, first.String())
	}

	return nil
}

// HealthCheck reports whether the registry carries any capabilities.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.actionFactories) == 0 {
		return "No action factories registered", false
	}

	return fmt.Sprintf("%d action factories registered", len(r.actionFactories)), true
}
