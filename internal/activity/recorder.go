// Package activity appends audit-trail rows for scheduler outcomes.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dagfinn/faktura/internal/domain"
)

// Recorder writes activity rows. Recording never fails the caller: a
// write error is logged and swallowed, since audit rows must not take
// down invoice generation.
type Recorder struct {
	store  domain.ActivityStore
	logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store domain.ActivityStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record appends one activity row.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, typ domain.ActivityType, text string, invoiceID *uuid.UUID, metadata map[string]any) {
	a := &domain.Activity{
		ID:        uuid.New(),
		UserID:    userID,
		InvoiceID: invoiceID,
		Type:      typ,
		Text:      text,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.store.CreateActivity(ctx, a); err != nil {
		r.logger.Warn("activity: failed to record",
			"type", string(typ),
			"user_id", userID.String(),
			"error", err,
		)
	}
}
