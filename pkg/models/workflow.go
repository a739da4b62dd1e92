// Package models defines the core domain models for the JurisNexo workflow
// automation engine: tenant-scoped workflow definitions, their trigger and
// step tree, and the execution records produced by running them.
package models

import "time"

// TriggerType identifies the business event a workflow reacts to. The set is
// closed: definitions referencing anything else are rejected at save time.
type TriggerType string

const (
	TriggerClientCreated       TriggerType = "client_created"
	TriggerCaseStatusChanged   TriggerType = "case_status_changed"
	TriggerPaymentOverdue      TriggerType = "payment_overdue"
	TriggerDeadlineApproaching TriggerType = "deadline_approaching"
	TriggerInvoicePaid         TriggerType = "invoice_paid"
	TriggerTaskCompleted       TriggerType = "task_completed"
	TriggerManual              TriggerType = "manual"
)

// KnownTriggerTypes lists every trigger type the engine accepts.
var KnownTriggerTypes = []TriggerType{
	TriggerClientCreated,
	TriggerCaseStatusChanged,
	TriggerPaymentOverdue,
	TriggerDeadlineApproaching,
	TriggerInvoicePaid,
	TriggerTaskCompleted,
	TriggerManual,
}

// IsKnownTriggerType reports whether t is part of the closed trigger set.
func IsKnownTriggerType(t TriggerType) bool {
	for _, known := range KnownTriggerTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Trigger couples an event type with a flat condition map. Every key is a
// dotted path into the event payload that must equal the given value for the
// workflow to match; an empty map matches any payload of that type.
type Trigger struct {
	Type       TriggerType    `json:"type"                 validate:"required"`
	Conditions map[string]any `json:"conditions,omitempty"`
}

// WorkflowDefinition is a tenant-owned automation: a trigger plus an ordered,
// branchable step tree. Definitions are mutated only through the management
// surface; the interpreter treats them as read-only.
type WorkflowDefinition struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"                  validate:"required"`
	Name           string     `json:"name"                       validate:"required,min=3"`
	Description    string     `json:"description"`
	Trigger        Trigger    `json:"trigger"                    validate:"required"`
	Steps          []*Step    `json:"steps"`
	IsActive       bool       `json:"is_active"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
	ExecutionCount int64      `json:"execution_count"`
}
