// Package worker drives the scheduler engine on a fixed interval.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dagfinn/faktura/internal/service"
)

// Cycler runs one generation cycle. Satisfied by *service.Engine.
type Cycler interface {
	ProcessDueInvoices(ctx context.Context) (service.CycleReport, error)
}

// Worker polls for due recurring templates: once immediately on start,
// then on every tick. A tick that arrives while the previous cycle is
// still running is skipped, so slow cycles never overlap.
type Worker struct {
	engine   Cycler
	interval time.Duration
	logger   *slog.Logger
	inFlight atomic.Bool
}

// New creates a worker polling at the given interval.
func New(engine Cycler, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks, running cycles until ctx is canceled. Each cycle runs on
// its own goroutine so a slow cycle never delays the ticker; the in-flight
// guard in runCycle is what prevents overlap.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker: starting", "interval", w.interval.String())

	go w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker: stopping")
			return ctx.Err()
		case <-ticker.C:
			go w.runCycle(ctx)
		}
	}
}

// runCycle executes one cycle unless one is already in flight.
func (w *Worker) runCycle(ctx context.Context) {
	if !w.inFlight.CompareAndSwap(false, true) {
		w.logger.Warn("worker: previous cycle still running, skipping tick")
		return
	}
	defer w.inFlight.Store(false)

	report, err := w.engine.ProcessDueInvoices(ctx)
	if err != nil {
		w.logger.Error("worker: cycle failed", "error", err)
		return
	}

	if report.Due > 0 {
		w.logger.Info("worker: cycle finished",
			"due", report.Due,
			"generated", report.Generated,
			"stopped", report.Stopped,
			"failed", report.Failed,
		)
	}
}
