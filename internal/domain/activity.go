package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType tags an audit-trail row.
type ActivityType string

const (
	ActivityRecurringStarted       ActivityType = "recurring_started"
	ActivityRecurringStopped       ActivityType = "recurring_stopped"
	ActivityRecurringAutoGenerated ActivityType = "recurring_auto_generated"
	ActivityRecurringEmailSent     ActivityType = "recurring_email_sent"
	ActivityRecurringFailed        ActivityType = "recurring_failed"
	ActivityPaymentLinkGenerated   ActivityType = "payment_link_generated"
)

// Activity is one append-only audit row. Metadata is free-form context
// (client, amount, failure reason) stored as JSON.
type Activity struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	InvoiceID *uuid.UUID
	Type      ActivityType
	Text      string
	Metadata  map[string]any
	CreatedAt time.Time
}
