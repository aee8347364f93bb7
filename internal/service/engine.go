package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dagfinn/faktura/internal/activity"
	"github.com/dagfinn/faktura/internal/currency"
	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/finance"
	"github.com/dagfinn/faktura/internal/recurrence"
	"github.com/dagfinn/faktura/internal/telemetry"
)

// Deliverer sends a generated invoice. Satisfied by *DeliveryPipeline.
type Deliverer interface {
	Deliver(ctx context.Context, tmpl, generated *domain.Invoice, items []domain.LineItem, summary finance.Summary) DeliveryOutcome
}

// CycleReport summarizes one scheduler pass.
type CycleReport struct {
	Due       int
	Generated int
	Stopped   int
	Failed    int
}

// Engine runs the recurring-invoice generation cycle: find due templates,
// clone each into a numbered Draft, deliver, advance the cursor. One bad
// template never blocks the rest of the batch.
type Engine struct {
	invoices domain.InvoiceStore
	activity *activity.Recorder
	delivery Deliverer
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates a scheduler engine. delivery and metrics may be nil.
func NewEngine(
	invoices domain.InvoiceStore,
	recorder *activity.Recorder,
	delivery Deliverer,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		invoices: invoices,
		activity: recorder,
		delivery: delivery,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessDueInvoices runs one cycle. The returned error covers only the
// due-template query; per-template failures are counted and logged.
func (e *Engine) ProcessDueInvoices(ctx context.Context) (CycleReport, error) {
	start := e.now()
	defer func() {
		e.metrics.CycleCompleted(time.Since(start))
	}()

	var report CycleReport

	due, err := e.invoices.FindDueRecurring(ctx, start)
	if err != nil {
		return report, fmt.Errorf("find due templates: %w", err)
	}

	report.Due = len(due)
	e.metrics.TemplatesDue(len(due))
	if len(due) == 0 {
		return report, nil
	}

	e.logger.Info("scheduler: processing due templates", "count", len(due))

	for i := range due {
		tmpl := &due[i]

		generated, stopped, err := e.processTemplate(ctx, tmpl)
		switch {
		case err != nil:
			// Isolate the failure; the cursor was not advanced, so this
			// template is retried next cycle.
			report.Failed++
			e.metrics.TemplateFailed()
			e.logger.Error("scheduler: template processing failed",
				"template_id", tmpl.ID.String(),
				"client", tmpl.Client,
				"error", err,
			)
		case stopped:
			report.Stopped++
			e.metrics.SeriesStopped()
		case generated != nil:
			report.Generated++
			e.metrics.InvoiceGenerated()
		}
	}

	e.logger.Info("scheduler: cycle complete",
		"due", report.Due,
		"generated", report.Generated,
		"stopped", report.Stopped,
		"failed", report.Failed,
	)

	return report, nil
}

// processTemplate handles a single due template end to end.
func (e *Engine) processTemplate(ctx context.Context, tmpl *domain.Invoice) (*domain.Invoice, bool, error) {
	now := e.now()

	// A series at its cap terminates instead of generating.
	if tmpl.RecurrenceExhausted() {
		if err := e.invoices.StopRecurrence(ctx, tmpl.ID); err != nil {
			return nil, false, fmt.Errorf("stop exhausted series: %w", err)
		}
		e.record(ctx, tmpl, tmpl.ID, domain.ActivityRecurringStopped,
			fmt.Sprintf("Recurring series for %s completed after %d invoices", tmpl.Client, tmpl.RecurringCount),
			map[string]any{"client": tmpl.Client, "count": tmpl.RecurringCount})
		e.logger.Info("scheduler: series stopped at cap",
			"template_id", tmpl.ID.String(), "count", tmpl.RecurringCount)
		return nil, true, nil
	}

	// Bad stored schedule data is a per-template failure, same as a bad
	// line item: skip without advancing so the row can be repaired.
	schedule := tmpl.Schedule()
	if err := schedule.Validate(); err != nil {
		return nil, false, fmt.Errorf("validate schedule: %w", err)
	}

	number := AllocateInvoiceNumber(ctx, e.invoices, now)

	generated, items, summary, err := CloneInvoice(tmpl, number, now)
	if err != nil {
		return nil, false, fmt.Errorf("clone template: %w", err)
	}

	if err := e.invoices.CreateInvoice(ctx, generated); err != nil {
		return nil, false, fmt.Errorf("persist generated invoice: %w", err)
	}
	if err := e.invoices.CreateLineItems(ctx, items); err != nil {
		return nil, false, fmt.Errorf("persist line items: %w", err)
	}

	e.record(ctx, tmpl, generated.ID, domain.ActivityRecurringAutoGenerated,
		fmt.Sprintf("Recurring invoice auto-generated for %s (%s%.2f)",
			generated.Client, currency.Symbol(generated.Currency), derefFloat(generated.TotalAmount)),
		map[string]any{
			"client":      generated.Client,
			"totalAmount": derefFloat(generated.TotalAmount),
			"currency":    generated.Currency,
			"frequency":   frequencyString(tmpl),
			"count":       tmpl.RecurringCount + 1,
		})

	if tmpl.AutoSendEmail && e.delivery != nil {
		outcome := e.delivery.Deliver(ctx, tmpl, generated, items, summary)
		if outcome.EmailSent {
			e.metrics.EmailSent()
		} else {
			e.metrics.EmailFailed()
		}
	}

	// The cursor advances whether or not delivery succeeded: the invoice
	// exists, so the series must not replay it.
	cursor := now
	if tmpl.NextRecurringDate != nil {
		cursor = *tmpl.NextRecurringDate
	}
	next := recurrence.NextOccurrence(cursor, schedule)

	if err := e.invoices.AdvanceRecurrence(ctx, tmpl.ID, next, tmpl.RecurringCount+1); err != nil {
		return generated, false, fmt.Errorf("advance recurrence cursor: %w", err)
	}

	return generated, false, nil
}

func (e *Engine) record(ctx context.Context, tmpl *domain.Invoice, invoiceID uuid.UUID, typ domain.ActivityType, text string, metadata map[string]any) {
	if e.activity == nil {
		return
	}
	e.activity.Record(ctx, tmpl.UserID, typ, text, &invoiceID, metadata)
}

func frequencyString(tmpl *domain.Invoice) string {
	if tmpl.Frequency == nil {
		return string(domain.FrequencyMonthly)
	}
	return string(*tmpl.Frequency)
}
