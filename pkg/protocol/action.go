// Package protocol defines the contracts between the step interpreter and
// pluggable action capabilities.
package protocol

import (
	"context"
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
)

// Action is one executable capability instance, created per step from its
// resolved config. Execute returns the step output merged into the binding
// table, or an error recorded as the step's failure.
type Action interface {
	Execute(ctx context.Context, tenantID string, logger *slog.Logger) (any, error)
}

// ActionFactory builds actions of one type. Schema returns the JSON schema
// the management surface validates step configs against at save time; an
// empty string means "no schema".
type ActionFactory interface {
	ID() models.ActionType
	Schema() string
	Create(config map[string]any) (Action, error)
}

// ActionError marks an executor failure with a message meant for the
// execution history, as opposed to an infrastructure error.
type ActionError struct {
	ActionType models.ActionType
	Message    string
	Err        error
}

func (e *ActionError) Error() string {
	if e.Err != nil {
		return string(e.ActionType) + ": " + e.Message + ": " + e.Err.Error()
	}

	return string(e.ActionType) + ": " + e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError creates an executor failure.
func NewActionError(actionType models.ActionType, message string, err error) *ActionError {
	return &ActionError{ActionType: actionType, Message: message, Err: err}
}
