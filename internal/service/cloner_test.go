package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/finance"
)

func recurringTemplate() *domain.Invoice {
	return &domain.Invoice{
		ID:            mustUUID("11111111-1111-1111-1111-111111111111"),
		UserID:        mustUUID("22222222-2222-2222-2222-222222222222"),
		Client:        "Acme GmbH",
		ClientEmail:   strPtr("billing@acme.example"),
		Date:          time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		WorkType:      strPtr("Consulting"),
		Currency:      "EUR",
		TotalAmount:   floatPtr(95), // stale, recomputed on clone
		Status:        domain.StatusSent,
		ItemStructure: domain.ItemStructureHourly,

		IsRecurring:       true,
		Frequency:         freqPtr(domain.FrequencyMonthly),
		NextRecurringDate: timePtr(time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)),
		RecurringCount:    0,
		DayOfMonth:        intPtr(15),
		AutoSendEmail:     true,

		CustomFields: map[string]any{
			finance.VATFieldKey: map[string]any{
				"enabled": true,
				"rate":    10.0,
				"number":  "DE123456789",
			},
		},
		LineItems: []domain.LineItem{
			{
				Description: "Development",
				Hours:       floatPtr(6),
				Rate:        floatPtr(10),
				Total:       floatPtr(60),
			},
			{
				Description: "Support retainer",
				Total:       floatPtr(40),
			},
		},
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestCloneInvoice_CopiesStructureAndRecomputesTotals(t *testing.T) {
	tmpl := recurringTemplate()
	now := time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

	clone, items, summary, err := CloneInvoice(tmpl, "INV-0007", now)
	require.NoError(t, err)

	assert.NotEqual(t, tmpl.ID, clone.ID)
	assert.Equal(t, tmpl.UserID, clone.UserID)
	require.NotNil(t, clone.InvoiceNumber)
	assert.Equal(t, "INV-0007", *clone.InvoiceNumber)
	assert.Equal(t, domain.StatusDraft, clone.Status)
	assert.Equal(t, now, clone.Date)
	assert.Equal(t, tmpl.Client, clone.Client)
	assert.Equal(t, "billing@acme.example", *clone.ClientEmail)
	assert.Equal(t, "Consulting", *clone.WorkType)
	assert.Equal(t, domain.ItemStructureHourly, clone.ItemStructure)

	// The clone is a one-off linked to its template.
	assert.False(t, clone.IsRecurring)
	require.NotNil(t, clone.ParentInvoiceID)
	assert.Equal(t, tmpl.ID, *clone.ParentInvoiceID)
	assert.True(t, clone.IsFirstRecurringInvoice)
	assert.Nil(t, clone.NextRecurringDate)
	assert.Nil(t, clone.Frequency)

	// Totals come from the line items plus VAT, never the stored 95.
	require.NotNil(t, clone.TotalAmount)
	assert.InDelta(t, 110.0, *clone.TotalAmount, 1e-9)
	assert.Equal(t, "100", summary.Subtotal.String())
	assert.Equal(t, "10", summary.VATAmount.String())

	require.Len(t, items, 2)
	for i, item := range items {
		assert.Equal(t, clone.ID, item.InvoiceID)
		assert.NotEqual(t, tmpl.LineItems[i].ID, item.ID)
	}
	assert.Equal(t, 6.0, *items[0].Hours)
	assert.Equal(t, 10.0, *items[0].Rate)
	// Absent optional fields stay absent on the clone.
	assert.Nil(t, items[1].Hours)
	assert.Nil(t, items[1].Rate)
	assert.Nil(t, items[1].Quantity)

	// The refreshed VAT entry travels with the clone.
	vat, ok := clone.CustomFields[finance.VATFieldKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, vat["enabled"])
	assert.Equal(t, "DE123456789", vat["number"])
}

func TestCloneInvoice_LaterOccurrencesAreNotFirst(t *testing.T) {
	tmpl := recurringTemplate()
	tmpl.RecurringCount = 3

	clone, _, _, err := CloneInvoice(tmpl, "INV-0010", time.Now())
	require.NoError(t, err)
	assert.False(t, clone.IsFirstRecurringInvoice)
}

func TestCloneInvoice_DefaultsItemStructure(t *testing.T) {
	tmpl := recurringTemplate()
	tmpl.ItemStructure = ""

	clone, _, _, err := CloneInvoice(tmpl, "INV-0002", time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStructureHourly, clone.ItemStructure)
}

func TestCloneInvoice_RejectsIncompleteLineItems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Invoice)
	}{
		{
			name:   "missing description",
			mutate: func(inv *domain.Invoice) { inv.LineItems[0].Description = "" },
		},
		{
			name:   "missing total",
			mutate: func(inv *domain.Invoice) { inv.LineItems[1].Total = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := recurringTemplate()
			tt.mutate(tmpl)

			clone, items, _, err := CloneInvoice(tmpl, "INV-0003", time.Now())
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, domain.EINVALID))
			assert.Nil(t, clone)
			assert.Nil(t, items)
		})
	}
}
