// Package file provides a file-system persistence implementation. It is the
// development and test store: one JSON document per definition or execution,
// grouped per tenant, guarded by a single process-wide mutex.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts a plain path or a file:// URL.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) workflowPath(tenantID, id string) string {
	return filepath.Join(p.root, tenantID, "workflows", id+".json")
}

func (p *Persistence) executionPath(tenantID, id string) string {
	return filepath.Join(p.root, tenantID, "executions", id+".json")
}

func writeDocument(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func readDocument(path string, value any, notFound error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFound
		}

		return fmt.Errorf("failed to read document: %w", err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(_ context.Context, tenantID string, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.readWorkflows(tenantID, filter)
}

func (p *Persistence) readWorkflows(tenantID string, filter persistence.WorkflowFilter) ([]*models.WorkflowDefinition, error) {
	dir := filepath.Join(p.root, tenantID, "workflows")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.WorkflowDefinition{}, nil
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		workflow := &models.WorkflowDefinition{}
		if err := readDocument(filepath.Join(dir, entry.Name()), workflow, persistence.ErrWorkflowNotFound); err != nil {
			return nil, err
		}

		if filter.IsActive != nil && workflow.IsActive != *filter.IsActive {
			continue
		}

		if filter.TriggerType != nil && workflow.Trigger.Type != *filter.TriggerType {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, tenantID, id string) (*models.WorkflowDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflow := &models.WorkflowDefinition{}
	if err := readDocument(p.workflowPath(tenantID, id), workflow, persistence.ErrWorkflowNotFound); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.WorkflowDefinition) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return writeDocument(p.workflowPath(workflow.TenantID, workflow.ID), workflow)
}

func (p *Persistence) DeleteWorkflow(_ context.Context, tenantID, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.workflowPath(tenantID, id))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.ErrWorkflowNotFound
	}

	return err
}

func (p *Persistence) TouchWorkflowExecuted(_ context.Context, tenantID, id string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	workflow := &models.WorkflowDefinition{}
	if err := readDocument(p.workflowPath(tenantID, id), workflow, persistence.ErrWorkflowNotFound); err != nil {
		return err
	}

	workflow.LastExecutedAt = &at
	workflow.ExecutionCount++

	return writeDocument(p.workflowPath(tenantID, id), workflow)
}

func (p *Persistence) CreateExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return writeDocument(p.executionPath(execution.TenantID, execution.ID), execution)
}

func (p *Persistence) ExecutionByID(_ context.Context, tenantID, id string) (*models.WorkflowExecution, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	execution := &models.WorkflowExecution{}
	if err := readDocument(p.executionPath(tenantID, id), execution, persistence.ErrExecutionNotFound); err != nil {
		return nil, err
	}

	return execution, nil
}

func (p *Persistence) MarkExecutionRunning(_ context.Context, tenantID, id string, startedAt time.Time) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	execution := &models.WorkflowExecution{}
	if err := readDocument(p.executionPath(tenantID, id), execution, persistence.ErrExecutionNotFound); err != nil {
		return false, err
	}

	if execution.Status.IsTerminal() {
		return false, nil
	}

	execution.Status = models.ExecutionStatusRunning
	execution.StartedAt = &startedAt
	// A redelivered job restarts the run from scratch on the same row.
	execution.StepResults = nil
	execution.Error = ""

	if err := writeDocument(p.executionPath(tenantID, id), execution); err != nil {
		return false, err
	}

	return true, nil
}

func (p *Persistence) FinishExecution(_ context.Context, execution *models.WorkflowExecution) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := &models.WorkflowExecution{}
	if err := readDocument(p.executionPath(execution.TenantID, execution.ID), current, persistence.ErrExecutionNotFound); err != nil {
		return err
	}

	if current.Status.IsTerminal() {
		return persistence.ErrExecutionTerminal
	}

	return writeDocument(p.executionPath(execution.TenantID, execution.ID), execution)
}

func (p *Persistence) ListExecutions(_ context.Context, tenantID string, filter persistence.ExecutionFilter) ([]*models.WorkflowExecution, int64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	executions, err := p.readExecutions(tenantID)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]*models.WorkflowExecution, 0, len(executions))

	for _, execution := range executions {
		if filter.WorkflowID != "" && execution.WorkflowID != filter.WorkflowID {
			continue
		}

		if filter.Status != nil && execution.Status != *filter.Status {
			continue
		}

		matched = append(matched, execution)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	start := filter.Offset
	if start < 0 {
		start = 0
	}

	if start >= len(matched) {
		return []*models.WorkflowExecution{}, total, nil
	}

	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

func (p *Persistence) ExecutionStats(_ context.Context, tenantID string) (*models.ExecutionStats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	workflows, err := p.readWorkflows(tenantID, persistence.WorkflowFilter{})
	if err != nil {
		return nil, err
	}

	executions, err := p.readExecutions(tenantID)
	if err != nil {
		return nil, err
	}

	stats := &models.ExecutionStats{TotalWorkflows: int64(len(workflows))}

	for _, workflow := range workflows {
		if workflow.IsActive {
			stats.ActiveWorkflows++
		}
	}

	for _, execution := range executions {
		stats.TotalExecutions++

		switch execution.Status {
		case models.ExecutionStatusCompleted:
			stats.Completed++
		case models.ExecutionStatusFailed:
			stats.Failed++
		}
	}

	if finished := stats.Completed + stats.Failed; finished > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(finished)
	}

	return stats, nil
}

func (p *Persistence) readExecutions(tenantID string) ([]*models.WorkflowExecution, error) {
	dir := filepath.Join(p.root, tenantID, "executions")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.WorkflowExecution{}, nil
		}

		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		execution := &models.WorkflowExecution{}
		if err := readDocument(filepath.Join(dir, entry.Name()), execution, persistence.ErrExecutionNotFound); err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, nil
}
