package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// History serves the execution audit trail: per-tenant listings of past and
// in-flight runs plus aggregate statistics.
type History struct {
	persistence persistence.Persistence
}

// NewHistory creates a new history service.
func NewHistory(p persistence.Persistence) *History {
	return &History{persistence: p}
}

// ListExecutionsRequest contains options for listing executions.
type ListExecutionsRequest struct {
	WorkflowID string
	Status     *models.ExecutionStatus
	Limit      int
	Offset     int
}

// ListExecutionsResponse contains the result of listing executions.
type ListExecutionsResponse struct {
	Executions  []*models.WorkflowExecution `json:"executions"`
	TotalCount  int64                       `json:"total_count"`
	HasNextPage bool                        `json:"has_next_page"`
}

// ListExecutions returns a tenant's executions newest first.
func (h *History) ListExecutions(ctx context.Context, tenantID string, req ListExecutionsRequest) (*ListExecutionsResponse, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrEmptyTenantID
	}

	if req.Limit <= 0 {
		req.Limit = defaultHistoryLimit
	}

	if req.Limit > maxHistoryLimit {
		req.Limit = maxHistoryLimit
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.Status != nil {
		switch *req.Status {
		case models.ExecutionStatusPending, models.ExecutionStatusRunning,
			models.ExecutionStatusCompleted, models.ExecutionStatusFailed:
		default:
			return nil, NewValidationError(
				"ListExecutions",
				"INVALID_STATUS",
				fmt.Sprintf("invalid execution status '%s'", *req.Status),
				ErrInvalidRequest,
			)
		}
	}

	executions, total, err := h.persistence.ListExecutions(ctx, tenantID, persistence.ExecutionFilter{
		WorkflowID: req.WorkflowID,
		Status:     req.Status,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return &ListExecutionsResponse{
		Executions:  executions,
		TotalCount:  total,
		HasNextPage: int64(req.Offset+len(executions)) < total,
	}, nil
}

// FetchExecution returns one execution with its full step result trail.
func (h *History) FetchExecution(ctx context.Context, tenantID, executionID string) (*models.WorkflowExecution, error) {
	return h.persistence.ExecutionByID(ctx, tenantID, executionID)
}

// Stats aggregates a tenant's execution history.
func (h *History) Stats(ctx context.Context, tenantID string) (*models.ExecutionStats, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrEmptyTenantID
	}

	stats, err := h.persistence.ExecutionStats(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate execution stats: %w", err)
	}

	return stats, nil
}
