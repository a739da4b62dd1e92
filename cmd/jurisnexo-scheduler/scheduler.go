// Package main provides the scheduler that turns time-based CRM facts into
// trigger events: approaching deadlines and overdue invoices.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/models"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/workflow"
)

// CoreScanner is the slice of the CRM core API the scheduler reads.
type CoreScanner interface {
	ListApproachingDeadlines(ctx context.Context, window time.Duration) ([]map[string]any, error)
	ListOverdueInvoices(ctx context.Context) ([]map[string]any, error)
}

type Scheduler struct {
	core           CoreScanner
	dispatcher     *workflow.Dispatcher
	logger         *slog.Logger
	deadlineWindow time.Duration
	deadlineCron   string
	invoiceCron    string
	cron           *cron.Cron
}

func NewScheduler(
	core CoreScanner,
	dispatcher *workflow.Dispatcher,
	logger *slog.Logger,
	deadlineWindow time.Duration,
	deadlineCron, invoiceCron string,
) *Scheduler {
	return &Scheduler{
		core:           core,
		dispatcher:     dispatcher,
		logger:         logger.With("module", "scheduler"),
		deadlineWindow: deadlineWindow,
		deadlineCron:   deadlineCron,
		invoiceCron:    invoiceCron,
		cron:           cron.New(),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.deadlineCron, func() { s.scanDeadlines(ctx) }); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.invoiceCron, func() { s.scanOverdueInvoices(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started",
		"deadline_cron", s.deadlineCron,
		"invoice_cron", s.invoiceCron,
		"deadline_window", s.deadlineWindow)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	s.logger.InfoContext(ctx, "Shutting down scheduler...")
	<-s.cron.Stop().Done()

	return nil
}

func (s *Scheduler) scanDeadlines(ctx context.Context) {
	deadlines, err := s.core.ListApproachingDeadlines(ctx, s.deadlineWindow)
	if err != nil {
		s.logger.ErrorContext(ctx, "Deadline scan failed", "error", err)

		return
	}

	s.dispatchRows(ctx, models.TriggerDeadlineApproaching, deadlines)
}

func (s *Scheduler) scanOverdueInvoices(ctx context.Context) {
	invoices, err := s.core.ListOverdueInvoices(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Overdue invoice scan failed", "error", err)

		return
	}

	s.dispatchRows(ctx, models.TriggerPaymentOverdue, invoices)
}

// dispatchRows emits one trigger event per row. Each row carries its own
// tenant_id; a row without one is logged and dropped rather than leaking
// into another tenant's matching.
func (s *Scheduler) dispatchRows(ctx context.Context, triggerType models.TriggerType, rows []map[string]any) {
	for _, row := range rows {
		tenantID, _ := row["tenant_id"].(string)
		if tenantID == "" {
			s.logger.WarnContext(ctx, "Skipping row without tenant_id", "trigger_type", triggerType)

			continue
		}

		executionIDs, err := s.dispatcher.DispatchEvent(ctx, tenantID, triggerType, row)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to dispatch trigger event",
				"trigger_type", triggerType,
				"tenant_id", tenantID,
				"error", err)

			continue
		}

		if len(executionIDs) > 0 {
			s.logger.InfoContext(ctx, "Dispatched trigger event",
				"trigger_type", triggerType,
				"tenant_id", tenantID,
				"executions", len(executionIDs))
		}
	}
}
