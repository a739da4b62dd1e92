package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow run. Transitions are
// monotonic: pending → running → completed|failed. Terminal rows are never
// resurrected.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// StepStatus is the outcome of a single step attempt.
type StepStatus string

const (
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// StepResult records one attempted step. Results are appended depth-first in
// the order steps were encountered; branch children are not re-sorted into
// the parent sequence.
type StepResult struct {
	StepOrder  int        `json:"step_order"`
	Status     StepStatus `json:"status"`
	Output     any        `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	ExecutedAt time.Time  `json:"executed_at"`
}

// WorkflowExecution is one concrete run of a definition against a trigger
// payload. Created pending by the dispatcher, advanced only by the
// interpreter. WorkflowName is a denormalized snapshot so history survives
// definition deletion.
type WorkflowExecution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	WorkflowName string          `json:"workflow_name"`
	TenantID     string          `json:"tenant_id"`
	Status       ExecutionStatus `json:"status"`
	TriggerEvent map[string]any  `json:"trigger_event,omitempty"`
	StepResults  []StepResult    `json:"step_results,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
}

// ExecutionStats aggregates a tenant's execution history.
type ExecutionStats struct {
	TotalWorkflows  int64   `json:"total_workflows"`
	ActiveWorkflows int64   `json:"active_workflows"`
	TotalExecutions int64   `json:"total_executions"`
	Completed       int64   `json:"completed"`
	Failed          int64   `json:"failed"`
	SuccessRate     float64 `json:"success_rate"`
}
