package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/registry"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// Workflow manages the definition store: create, read, update, delete,
// activation toggling and duplication of workflow definitions, always scoped
// to one tenant.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(p persistence.Persistence, reg *registry.Registry) *Workflow {
	return &Workflow{
		persistence: p,
		registry:    reg,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List retrieves a tenant's workflow definitions, optionally filtered by
// activation state and trigger type.
func (w *Workflow) List(ctx context.Context, tenantID string, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrEmptyTenantID
	}

	workflows, err := w.persistence.Workflows(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, tenantID, id string) (*models.WorkflowDefinition, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Create validates and stores a new workflow definition.
func (w *Workflow) Create(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if err := w.validate(workflow); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow id: %w", err)
	}

	now := time.Now().UTC()
	workflow.ID = id.String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	workflow.ExecutionCount = 0
	workflow.LastExecutedAt = nil

	if err := w.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces an existing definition. Creation metadata and execution
// counters survive the update.
func (w *Workflow) Update(ctx context.Context, tenantID, workflowID string, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.persistence.WorkflowByID(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.TenantID = tenantID

	if err := w.validate(workflow); err != nil {
		return nil, err
	}

	workflow.CreatedAt = existing.CreatedAt
	workflow.CreatedBy = existing.CreatedBy
	workflow.ExecutionCount = existing.ExecutionCount
	workflow.LastExecutedAt = existing.LastExecutedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow definition. Past execution history keeps its own
// denormalized copy of the workflow name and is not touched.
func (w *Workflow) Delete(ctx context.Context, tenantID, workflowID string) error {
	return w.persistence.DeleteWorkflow(ctx, tenantID, workflowID)
}

// SetActive flips the activation flag. Inactive definitions are invisible to
// the trigger matcher but can still be run directly.
func (w *Workflow) SetActive(ctx context.Context, tenantID, workflowID string, active bool) (*models.WorkflowDefinition, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.IsActive = active
	workflow.UpdatedAt = time.Now().UTC()

	if err := w.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Duplicate copies a definition under a new id. The copy always starts
// inactive so it cannot fire before someone reviews it.
func (w *Workflow) Duplicate(ctx context.Context, tenantID, workflowID, createdBy string) (*models.WorkflowDefinition, error) {
	source, err := w.persistence.WorkflowByID(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow id: %w", err)
	}

	now := time.Now().UTC()

	duplicate := *source
	duplicate.ID = id.String()
	duplicate.Name = source.Name + " (copy)"
	duplicate.IsActive = false
	duplicate.CreatedBy = createdBy
	duplicate.CreatedAt = now
	duplicate.UpdatedAt = now
	duplicate.ExecutionCount = 0
	duplicate.LastExecutedAt = nil
	duplicate.Steps = copySteps(source.Steps)

	if err := w.persistence.SaveWorkflow(ctx, &duplicate); err != nil {
		return nil, fmt.Errorf("failed to duplicate workflow: %w", err)
	}

	return &duplicate, nil
}

func copySteps(steps []*models.Step) []*models.Step {
	if steps == nil {
		return nil
	}

	copied := make([]*models.Step, len(steps))

	for i, step := range steps {
		s := *step

		if step.Condition != nil {
			cond := *step.Condition
			s.Condition = &cond
		}

		if step.Action.Config != nil {
			config := make(map[string]any, len(step.Action.Config))
			for k, v := range step.Action.Config {
				config[k] = v
			}

			s.Action.Config = config
		}

		s.Children = copySteps(step.Children)
		s.ElseChildren = copySteps(step.ElseChildren)
		copied[i] = &s
	}

	return copied
}

// validate checks a definition top to bottom: struct tags, the closed
// trigger type set, and every step of the tree.
func (w *Workflow) validate(workflow *models.WorkflowDefinition) error {
	if strings.TrimSpace(workflow.TenantID) == "" {
		return ErrEmptyTenantID
	}

	if strings.TrimSpace(workflow.Name) == "" {
		return ErrNameRequired
	}

	if err := w.validator.Struct(workflow); err != nil {
		return NewValidationError("validate", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	if !models.IsKnownTriggerType(workflow.Trigger.Type) {
		return NewValidationError(
			"validate",
			"UNKNOWN_TRIGGER_TYPE",
			fmt.Sprintf("unknown trigger type '%s'", workflow.Trigger.Type),
			ErrUnknownTriggerType,
		)
	}

	if len(workflow.Steps) == 0 {
		return ErrStepsRequired
	}

	return w.validateSteps(workflow.Steps)
}

func (w *Workflow) validateSteps(steps []*models.Step) error {
	for _, step := range steps {
		if step.Condition != nil && !knownOperator(step.Condition.Operator) {
			return NewValidationError(
				"validateSteps",
				"INVALID_CONDITION",
				fmt.Sprintf("step %d uses unknown operator '%s'", step.Order, step.Condition.Operator),
				ErrInvalidCondition,
			)
		}

		if step.Action.Type == models.ActionCondition {
			if step.BranchCondition() == nil {
				return NewValidationError(
					"validateSteps",
					"INVALID_CONDITION",
					fmt.Sprintf("condition step %d needs a field to compare", step.Order),
					ErrInvalidCondition,
				)
			}

			if err := w.validateSteps(step.Children); err != nil {
				return err
			}

			if err := w.validateSteps(step.ElseChildren); err != nil {
				return err
			}

			continue
		}

		if !w.registry.IsActionRegistered(step.Action.Type) {
			return NewValidationError(
				"validateSteps",
				"UNKNOWN_ACTION_TYPE",
				fmt.Sprintf("step %d uses unknown action type '%s'", step.Order, step.Action.Type),
				ErrUnknownActionType,
			)
		}

		// Configs carrying {{placeholders}} only take their final shape
		// at run time and cannot be schema-checked here.
		if !configIsTemplated(step.Action.Config) {
			if err := w.registry.ValidateActionConfig(step.Action.Type, step.Action.Config); err != nil {
				return NewValidationError(
					"validateSteps",
					"INVALID_ACTION_CONFIG",
					fmt.Sprintf("step %d: %v", step.Order, err),
					ErrInvalidActionConfig,
				)
			}
		}
	}

	return nil
}

func knownOperator(op models.ConditionOperator) bool {
	switch op {
	case models.OperatorEquals, models.OperatorNotEquals, models.OperatorContains,
		models.OperatorGreaterThan, models.OperatorLessThan:
		return true
	default:
		return false
	}
}

func configIsTemplated(config map[string]any) bool {
	return valueIsTemplated(config)
}

func valueIsTemplated(v any) bool {
	switch typed := v.(type) {
	case string:
		return strings.Contains(typed, "{{")
	case map[string]any:
		for _, nested := range typed {
			if valueIsTemplated(nested) {
				return true
			}
		}
	case []any:
		for _, nested := range typed {
			if valueIsTemplated(nested) {
				return true
			}
		}
	}

	return false
}
