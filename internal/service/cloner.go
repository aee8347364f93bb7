package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/finance"
)

// CloneInvoice materializes a one-off invoice from a recurring template.
// The clone starts as Draft dated now; the financial summary (subtotal,
// VAT, total) is recomputed from the template's line items so stale
// totals and tax metadata never propagate.
//
// The whole clone fails when any source line item lacks a description or
// total. Nothing has been written at that point, so the caller simply
// retries next cycle.
func CloneInvoice(tmpl *domain.Invoice, number string, now time.Time) (*domain.Invoice, []domain.LineItem, finance.Summary, error) {
	for i, item := range tmpl.LineItems {
		if item.Description == "" {
			return nil, nil, finance.Summary{}, domain.Errorf(domain.EINVALID, "invoice.clone",
				"line item %d has no description", i)
		}
		if item.Total == nil {
			return nil, nil, finance.Summary{}, domain.Errorf(domain.EINVALID, "invoice.clone",
				"line item %d (%s) has no total", i, item.Description)
		}
	}

	summary := finance.BuildSummary(tmpl.LineItems, tmpl.CustomFields, tmpl.TotalAmount)
	total := summary.TotalAmount()

	structure := tmpl.ItemStructure
	if structure == "" {
		structure = domain.ItemStructureHourly
	}

	clone := &domain.Invoice{
		ID:            uuid.New(),
		UserID:        tmpl.UserID,
		InvoiceNumber: &number,
		Client:        tmpl.Client,
		ClientEmail:   tmpl.ClientEmail,
		Date:          now,
		WorkType:      tmpl.WorkType,
		Currency:      tmpl.Currency,
		TotalAmount:   &total,
		Status:        domain.StatusDraft,
		ItemStructure: structure,

		IsRecurring:             false,
		ParentInvoiceID:         &tmpl.ID,
		IsFirstRecurringInvoice: tmpl.RecurringCount == 0,

		CustomFields: summary.CustomFields,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	items := make([]domain.LineItem, 0, len(tmpl.LineItems))
	for _, src := range tmpl.LineItems {
		items = append(items, domain.LineItem{
			ID:          uuid.New(),
			InvoiceID:   clone.ID,
			Description: src.Description,
			Total:       copyFloat(src.Total),
			Hours:       copyFloat(src.Hours),
			Rate:        copyFloat(src.Rate),
			Quantity:    copyFloat(src.Quantity),
			UnitPrice:   copyFloat(src.UnitPrice),
			Days:        copyFloat(src.Days),
			Amount:      copyFloat(src.Amount),
		})
	}
	clone.LineItems = items

	return clone, items, summary, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
