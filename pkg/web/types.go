// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// TriggerRequest is the request body for the trigger endpoint: one domain
// event emitted by the CRM core or an external integration.
type TriggerRequest struct {
	TriggerType string         `json:"trigger_type" validate:"required"`
	Payload     map[string]any `json:"payload"`
}

// TriggerResponse reports which executions an event produced.
type TriggerResponse struct {
	Matched      int      `json:"matched"`
	ExecutionIDs []string `json:"execution_ids"`
}

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Trigger     models.Trigger `json:"trigger"     validate:"required"`
	Steps       []*models.Step `json:"steps"       validate:"required,min=1"`
	IsActive    bool           `json:"is_active"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string         `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string         `json:"description,omitempty"`
	Trigger     *models.Trigger `json:"trigger,omitempty"`
	Steps       []*models.Step  `json:"steps,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// ToggleWorkflowRequest flips the activation flag.
type ToggleWorkflowRequest struct {
	IsActive bool `json:"is_active"`
}

// RunWorkflowRequest carries the synthetic payload for a manual run.
type RunWorkflowRequest struct {
	Payload map[string]any `json:"payload"`
}

// RunWorkflowResponse returns the queued execution.
type RunWorkflowResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}
