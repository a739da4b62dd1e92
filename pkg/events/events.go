// Package events defines the queue payloads exchanged between the dispatcher
// and the interpreter workers.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the durable queue all execution jobs travel on.
const Topic = "jurisnexo.workflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// ExecutionQueuedEvent is the job a worker picks up: the execution row
	// already exists in pending state when this event becomes visible.
	ExecutionQueuedEvent EventType = "workflow.execution.queued"

	// ExecutionCompletedEvent and ExecutionFailedEvent announce terminal
	// transitions for observers; the engine itself does not consume them.
	ExecutionCompletedEvent EventType = "workflow.execution.completed"
	ExecutionFailedEvent    EventType = "workflow.execution.failed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  string    `json:"worker_id,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ExecutionQueued carries everything a worker needs to load and run one
// execution. Attempt starts at 1 and is bumped on each queue-level retry;
// the execution id stays the same across attempts.
type ExecutionQueued struct {
	BaseEvent

	TenantID       string         `json:"tenant_id"`
	WorkflowID     string         `json:"workflow_id"`
	ExecutionID    string         `json:"execution_id"`
	TriggerPayload map[string]any `json:"trigger_payload,omitempty"`
	Attempt        int            `json:"attempt"`
}

func (e ExecutionQueued) GetType() EventType {
	return ExecutionQueuedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	TenantID    string `json:"tenant_id"`
	WorkflowID  string `json:"workflow_id"`
	ExecutionID string `json:"execution_id"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	TenantID    string `json:"tenant_id"`
	WorkflowID  string `json:"workflow_id"`
	ExecutionID string `json:"execution_id"`
	Error       string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
