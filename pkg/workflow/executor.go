package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/conditions"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/events"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/otelhelper"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/persistence"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/registry"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/template"
)

// Executor is the step interpreter. It pulls one queued job at a time, walks
// the definition's step tree in order, and records per-step results. Steps
// within one execution always run sequentially: later steps may read earlier
// outputs through the binding table.
type Executor struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewExecutor creates a step interpreter. A nil tracer disables tracing.
func NewExecutor(p persistence.Persistence, reg *registry.Registry, logger *slog.Logger, tracer trace.Tracer) *Executor {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("executor")
	}

	return &Executor{
		persistence: p,
		registry:    reg,
		logger:      logger.With("module", "executor"),
		tracer:      tracer,
	}
}

// stepAbort carries the failure that terminated a run out of the tree walk.
type stepAbort struct {
	order int
	err   error
}

func (a *stepAbort) Error() string {
	return fmt.Sprintf("step %d failed: %v", a.order, a.err)
}

// Run processes one queued job end to end. A returned error means
// infrastructure failed and the job should be retried by the queue; business
// failures (a step failing, the definition having been deleted) terminate
// the execution row instead and return nil.
func (e *Executor) Run(ctx context.Context, job *events.ExecutionQueued) error {
	logger := e.logger.With(
		"tenant_id", job.TenantID,
		"workflow_id", job.WorkflowID,
		"execution_id", job.ExecutionID,
		"attempt", job.Attempt,
	)

	ctx, span := e.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String(otelhelper.WorkflowIDKey, job.WorkflowID),
		attribute.String(otelhelper.ExecutionIDKey, job.ExecutionID),
		attribute.String(otelhelper.TenantIDKey, job.TenantID),
	))
	defer span.End()

	execution, err := e.persistence.ExecutionByID(ctx, job.TenantID, job.ExecutionID)
	if err != nil {
		return fmt.Errorf("failed to load execution %s: %w", job.ExecutionID, err)
	}

	// At-least-once delivery: a redelivered job for a finished run is
	// acknowledged and dropped.
	if execution.Status.IsTerminal() {
		logger.Info("Execution already terminal, skipping redelivered job", "status", execution.Status)

		return nil
	}

	workflow, err := e.persistence.WorkflowByID(ctx, job.TenantID, job.WorkflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			// Definition deleted between dispatch and pickup.
			return e.finish(ctx, execution, time.Now().UTC(), errors.New("workflow definition no longer exists"))
		}

		return fmt.Errorf("failed to load workflow %s: %w", job.WorkflowID, err)
	}

	startedAt := time.Now().UTC()

	claimed, err := e.persistence.MarkExecutionRunning(ctx, job.TenantID, job.ExecutionID, startedAt)
	if err != nil {
		return fmt.Errorf("failed to mark execution running: %w", err)
	}

	if !claimed {
		logger.Info("Execution reached terminal state concurrently, skipping")

		return nil
	}

	logger.Info("Starting workflow execution", "workflow_name", workflow.Name)

	execution.Status = models.ExecutionStatusRunning
	execution.StartedAt = &startedAt
	execution.StepResults = nil
	execution.Error = ""

	run := &runState{
		tenantID: job.TenantID,
		bindings: seedBindings(workflow, execution, startedAt),
		logger:   logger,
	}

	runErr := e.runSteps(ctx, workflow, run, workflow.Steps)

	execution.StepResults = run.results

	if finishErr := e.finish(ctx, execution, startedAt, runErr); finishErr != nil {
		return finishErr
	}

	if err := e.persistence.TouchWorkflowExecuted(ctx, job.TenantID, workflow.ID, startedAt); err != nil {
		logger.Error("Failed to update workflow execution counters", "error", err)
	}

	return nil
}

// finish writes the terminal state. runErr nil means completed.
func (e *Executor) finish(ctx context.Context, execution *models.WorkflowExecution, startedAt time.Time, runErr error) error {
	completedAt := time.Now().UTC()
	execution.CompletedAt = &completedAt
	execution.DurationMs = completedAt.Sub(startedAt).Milliseconds()

	if runErr != nil {
		execution.Status = models.ExecutionStatusFailed
		execution.Error = runErr.Error()
	} else {
		execution.Status = models.ExecutionStatusCompleted
	}

	err := e.persistence.FinishExecution(ctx, execution)
	if err != nil && !errors.Is(err, persistence.ErrExecutionTerminal) {
		return fmt.Errorf("failed to persist execution result: %w", err)
	}

	return nil
}

type runState struct {
	tenantID string
	bindings map[string]any
	results  []models.StepResult
	logger   *slog.Logger
}

func seedBindings(workflow *models.WorkflowDefinition, execution *models.WorkflowExecution, startedAt time.Time) map[string]any {
	bindings := make(map[string]any, len(execution.TriggerEvent)+2)
	maps.Copy(bindings, execution.TriggerEvent)

	bindings["_workflow"] = map[string]any{
		"id":   workflow.ID,
		"name": workflow.Name,
	}
	bindings["_execution"] = map[string]any{
		"id":         execution.ID,
		"started_at": startedAt.Format(time.RFC3339),
	}

	return bindings
}

// runSteps walks one sibling list in order, descending into condition
// branches as they are encountered. Results are appended depth-first; a
// non-continuable failure aborts the whole walk.
func (e *Executor) runSteps(ctx context.Context, workflow *models.WorkflowDefinition, run *runState, steps []*models.Step) error {
	ordered := make([]*models.Step, len(steps))
	copy(ordered, steps)
	slices.SortStableFunc(ordered, func(a, b *models.Step) int {
		return a.Order - b.Order
	})

	for _, step := range ordered {
		if step.Condition != nil && !conditions.Evaluate(step.Condition, run.bindings) {
			run.results = append(run.results, models.StepResult{
				StepOrder:  step.Order,
				Status:     models.StepStatusSkipped,
				Reason:     "Condition not met",
				ExecutedAt: time.Now().UTC(),
			})

			continue
		}

		if step.Action.Type == models.ActionCondition {
			if err := e.runConditionStep(ctx, workflow, run, step); err != nil {
				return err
			}

			continue
		}

		if err := e.runActionStep(ctx, run, step); err != nil {
			return err
		}
	}

	return nil
}

// runConditionStep evaluates the step's branch condition and walks the
// chosen branch. Branch children keep their own sibling ordering; they are
// appended to the result trail as encountered, not re-sorted globally.
func (e *Executor) runConditionStep(ctx context.Context, workflow *models.WorkflowDefinition, run *runState, step *models.Step) error {
	branchCond := step.BranchCondition()
	met := conditions.Evaluate(branchCond, run.bindings)

	branch := step.Children
	branchName := "children"

	if !met {
		branch = step.ElseChildren
		branchName = "else"
	}

	run.results = append(run.results, models.StepResult{
		StepOrder:  step.Order,
		Status:     models.StepStatusSuccess,
		Output:     map[string]any{"condition_met": met, "branch": branchName},
		ExecutedAt: time.Now().UTC(),
	})

	run.logger.Debug("Condition step evaluated", "step_order", step.Order, "condition_met", met)

	return e.runSteps(ctx, workflow, run, branch)
}

func (e *Executor) runActionStep(ctx context.Context, run *runState, step *models.Step) error {
	stepStart := time.Now().UTC()

	ctx, span := e.tracer.Start(ctx, "workflow.step", trace.WithAttributes(
		attribute.Int(otelhelper.StepOrderKey, step.Order),
		attribute.String(otelhelper.ActionTypeKey, string(step.Action.Type)),
	))
	defer span.End()

	output, err := e.executeAction(ctx, run, step)

	duration := time.Since(stepStart).Milliseconds()

	if err != nil {
		otelhelper.SetError(span, err)
		run.results = append(run.results, models.StepResult{
			StepOrder:  step.Order,
			Status:     models.StepStatusFailed,
			Error:      err.Error(),
			DurationMs: duration,
			ExecutedAt: stepStart,
		})

		run.logger.Warn("Step failed",
			"step_order", step.Order,
			"action_type", step.Action.Type,
			"continue_on_error", step.ContinuesOnError(),
			"error", err)

		if step.ContinuesOnError() {
			return nil
		}

		return &stepAbort{order: step.Order, err: err}
	}

	run.results = append(run.results, models.StepResult{
		StepOrder:  step.Order,
		Status:     models.StepStatusSuccess,
		Output:     output,
		DurationMs: duration,
		ExecutedAt: stepStart,
	})

	// Expose the output to later steps.
	run.bindings[fmt.Sprintf("step_%d", step.Order)] = output

	return nil
}

func (e *Executor) executeAction(ctx context.Context, run *runState, step *models.Step) (any, error) {
	resolvedConfig := template.ResolveConfig(step.Action.Config, run.bindings)

	action, err := e.registry.CreateAction(step.Action.Type, resolvedConfig)
	if err != nil {
		return nil, err
	}

	logger := run.logger.With("step_order", step.Order, "action_type", step.Action.Type)

	return action.Execute(ctx, run.tenantID, logger)
}
