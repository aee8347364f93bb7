package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceStore is the persistence surface the scheduler drives.
// Implemented by internal/postgres, faked in tests.
type InvoiceStore interface {
	// FindDueRecurring returns recurring templates whose cursor is at or
	// before now and whose series has not ended, line items eager-loaded.
	FindDueRecurring(ctx context.Context, now time.Time) ([]Invoice, error)

	// LatestNumberedInvoice returns the most recently created invoice that
	// carries an invoice number. Returns ENOTFOUND when none exists.
	LatestNumberedInvoice(ctx context.Context) (*Invoice, error)

	CreateInvoice(ctx context.Context, inv *Invoice) error
	CreateLineItems(ctx context.Context, items []LineItem) error

	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error

	// MarkTemplateSent records that a PDF layout was rendered and attached
	// for the invoice, keeping the rendered HTML for audit.
	MarkTemplateSent(ctx context.Context, id uuid.UUID, renderedHTML string) error

	// AdvanceRecurrence moves the template's cursor forward and bumps its
	// occurrence count. The cursor only ever moves forward.
	AdvanceRecurrence(ctx context.Context, id uuid.UUID, next time.Time, count int) error

	// StopRecurrence terminates a series: recurring flag off, cursor cleared.
	StopRecurrence(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves the owner-side records delivery needs.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetEmailSettings(ctx context.Context, userID uuid.UUID) (*EmailSettings, error)
	GetEmailTemplate(ctx context.Context, id, userID uuid.UUID) (*EmailTemplate, error)
	GetInvoiceTemplate(ctx context.Context, id, userID uuid.UUID) (*InvoiceTemplate, error)
}

// ActivityStore appends audit rows.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a *Activity) error
}
