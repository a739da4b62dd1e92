package models

// ActionType identifies a registered action capability. Like trigger types,
// the set is closed at definition save time; the registry stays open for
// extension at startup.
type ActionType string

const (
	ActionSendEmail          ActionType = "send_email"
	ActionCallWebhook        ActionType = "call_webhook"
	ActionCreateTask         ActionType = "create_task"
	ActionCreateNotification ActionType = "create_notification"
	ActionDelay              ActionType = "delay"
	ActionUpdateRecord       ActionType = "update_record"

	// ActionCondition is interpreted by the engine itself: it evaluates the
	// branch condition in its config and descends into Children or
	// ElseChildren. It never reaches the action registry.
	ActionCondition ActionType = "condition"
)

// ConditionOperator is the comparison applied by a Condition.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
)

// Condition compares the value at a dotted path in the binding table against
// a literal.
type Condition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required,oneof=equals not_equals contains greater_than less_than"`
	Value    any               `json:"value"`
}

// Action is the typed payload of a step. Config values may contain
// {{dotted.path}} placeholders resolved against the binding table right
// before dispatch.
type Action struct {
	Type   ActionType     `json:"type"             validate:"required"`
	Config map[string]any `json:"config,omitempty"`
}

// Step is one node of a workflow's ordered step tree. Order numbers a step
// within its sibling list. An optional Condition gates the step: when it
// evaluates false the step is recorded as skipped and its siblings continue.
// Children and ElseChildren are only walked by condition steps.
type Step struct {
	Order        int        `json:"order"`
	Condition    *Condition `json:"condition,omitempty"`
	Action       Action     `json:"action"`
	Children     []*Step    `json:"children,omitempty"`
	ElseChildren []*Step    `json:"elseChildren,omitempty"`
}

// ContinuesOnError reports whether a failure of this step should be recorded
// without aborting the run. The flag travels in the action config so event
// payload authors and the UI share one shape.
func (s *Step) ContinuesOnError() bool {
	v, ok := s.Action.Config["continueOnError"].(bool)

	return ok && v
}

// BranchCondition extracts the inner condition of a condition step from its
// action config. Returns nil when the config does not carry one.
func (s *Step) BranchCondition() *Condition {
	field, _ := s.Action.Config["field"].(string)
	if field == "" {
		return nil
	}

	op, _ := s.Action.Config["operator"].(string)
	if op == "" {
		op = string(OperatorEquals)
	}

	return &Condition{
		Field:    field,
		Operator: ConditionOperator(op),
		Value:    s.Action.Config["value"],
	}
}
