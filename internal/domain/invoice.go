package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DocumentStatus is the lifecycle state of an invoice.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "Draft"
	StatusSent      DocumentStatus = "Sent"
	StatusPending   DocumentStatus = "Pending"
	StatusPaid      DocumentStatus = "Paid"
	StatusOverdue   DocumentStatus = "Overdue"
	StatusAccepted  DocumentStatus = "Accepted"
	StatusDeclined  DocumentStatus = "Declined"
	StatusConverted DocumentStatus = "Converted"
)

// ItemStructure describes how an invoice's line items are priced.
type ItemStructure string

const (
	ItemStructureHourly     ItemStructure = "hourly"
	ItemStructureFixedPrice ItemStructure = "fixed_price"
	ItemStructureDailyRate  ItemStructure = "daily_rate"
	ItemStructureSimple     ItemStructure = "simple"
)

// Frequency is a recurrence interval. The sub-minute values exist for
// exercising the scheduler without waiting out a calendar month.
type Frequency string

const (
	FrequencyEvery20Seconds Frequency = "every-20-seconds"
	FrequencyEveryMinute    Frequency = "every-minute"
	FrequencyDaily          Frequency = "daily"
	FrequencyWeekly         Frequency = "weekly"
	FrequencyBiWeekly       Frequency = "bi-weekly"
	FrequencyMonthly        Frequency = "monthly"
	FrequencyMonthlyTest    Frequency = "monthly-test"
	FrequencyQuarterly      Frequency = "quarterly"
	FrequencyYearly         Frequency = "yearly"
)

// IsFastTest reports whether f is one of the accelerated test frequencies.
// Time-of-day overrides are skipped for these so short intervals stay short.
func (f Frequency) IsFastTest() bool {
	switch f {
	case FrequencyEvery20Seconds, FrequencyEveryMinute, FrequencyMonthlyTest:
		return true
	}
	return false
}

// Invoice is a billing document. A single table holds both recurring
// templates (IsRecurring true, carrying the recurrence block) and the
// one-off invoices generated from them.
type Invoice struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	InvoiceNumber *string
	Client        string
	ClientEmail   *string
	Date          time.Time
	WorkType      *string
	Currency      string
	TotalAmount   *float64
	Status        DocumentStatus
	ItemStructure ItemStructure

	// Recurrence configuration and state. Only meaningful on templates.
	IsRecurring        bool
	Frequency          *Frequency
	RecurringStartDate *time.Time
	RecurringEndDate   *time.Time
	NextRecurringDate  *time.Time
	RecurringCount     int
	MaxRecurrences     *int
	DayOfMonth         *int
	DayOfWeek          *int
	MonthOfYear        *int
	QuarterMonth       *int
	RecurringTime      *string // "HH:MM", 24h

	ParentInvoiceID         *uuid.UUID
	IsFirstRecurringInvoice bool
	AutoSendEmail           bool
	EmailTemplateID         *uuid.UUID
	InvoiceTemplateID       *uuid.UUID

	// PDF provenance: set when a layout was rendered and attached.
	PDFTemplateSent  bool
	SentTemplateHTML *string

	CustomFields map[string]any
	LineItems    []LineItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecurrenceExhausted reports whether the template has reached its
// configured occurrence cap.
func (inv *Invoice) RecurrenceExhausted() bool {
	return inv.MaxRecurrences != nil && inv.RecurringCount >= *inv.MaxRecurrences
}

// LineItem is a single billable row on an invoice. Total is a pointer
// because legacy rows can carry nulls; cloning must refuse those.
type LineItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Description string
	Total       *float64

	// Structure-dependent optional fields. Absent stays absent on clones.
	Hours     *float64
	Rate      *float64
	Quantity  *float64
	UnitPrice *float64
	Days      *float64
	Amount    *float64
}

// RecurrenceSchedule is the validated slice of an invoice's recurrence
// configuration consumed by the date cursor.
type RecurrenceSchedule struct {
	Frequency    Frequency `validate:"required"`
	DayOfMonth   *int      `validate:"omitempty,min=1,max=31"`
	DayOfWeek    *int      `validate:"omitempty,min=0,max=6"` // 0 = Sunday
	MonthOfYear  *int      `validate:"omitempty,min=1,max=12"`
	QuarterMonth *int      `validate:"omitempty,min=1,max=3"`
	TimeOfDay    *string   `validate:"omitempty,datetime=15:04"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the schedule's field ranges.
func (s RecurrenceSchedule) Validate() error {
	if err := validate.Struct(s); err != nil {
		return WrapError(err, EINVALID, "schedule.validate", "invalid recurrence schedule")
	}
	return nil
}

// Schedule extracts the recurrence schedule from a template invoice.
// An absent frequency falls back to monthly, matching the date cursor.
func (inv *Invoice) Schedule() RecurrenceSchedule {
	freq := FrequencyMonthly
	if inv.Frequency != nil {
		freq = *inv.Frequency
	}
	return RecurrenceSchedule{
		Frequency:    freq,
		DayOfMonth:   inv.DayOfMonth,
		DayOfWeek:    inv.DayOfWeek,
		MonthOfYear:  inv.MonthOfYear,
		QuarterMonth: inv.QuarterMonth,
		TimeOfDay:    inv.RecurringTime,
	}
}
