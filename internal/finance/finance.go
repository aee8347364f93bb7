// Package finance computes an invoice's financial summary from its line
// items and the VAT configuration carried in its custom fields.
package finance

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dagfinn/faktura/internal/domain"
)

// VATFieldKey is the custom-fields key holding system-managed VAT state.
const VATFieldKey = "_systemVat"

// VATDetails is the VAT configuration read from custom fields.
type VATDetails struct {
	Enabled bool
	Rate    decimal.Decimal // percent
	Number  string
}

// Summary is the recomputed financial state of an invoice. All monetary
// values are rounded to two decimal places.
type Summary struct {
	Subtotal  decimal.Decimal
	VAT       VATDetails
	VATAmount decimal.Decimal
	Total     decimal.Decimal

	// CustomFields is a copy of the input fields with the VAT entry
	// refreshed (or removed when VAT is off).
	CustomFields map[string]any
}

// BuildSummary recomputes subtotal, VAT and total from the line items.
// Rows with a nil total are skipped. When VAT is disabled the stored total
// is trusted as-is, falling back to the subtotal when absent.
func BuildSummary(items []domain.LineItem, customFields map[string]any, storedTotal *float64) Summary {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Total == nil {
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(*item.Total))
	}
	subtotal = subtotal.Round(2)

	vat := readVATDetails(customFields)

	vatAmount := decimal.Zero
	if vat.Enabled && vat.Rate.IsPositive() {
		vatAmount = subtotal.Mul(vat.Rate).Div(decimal.NewFromInt(100)).Round(2)
	}

	var total decimal.Decimal
	if vat.Enabled {
		total = subtotal.Add(vatAmount).Round(2)
	} else if storedTotal != nil {
		total = decimal.NewFromFloat(*storedTotal).Round(2)
	} else {
		total = subtotal
	}

	fields := make(map[string]any, len(customFields))
	for k, v := range customFields {
		fields[k] = v
	}
	if vat.Enabled && vat.Rate.IsPositive() {
		rate, _ := vat.Rate.Float64()
		amount, _ := vatAmount.Float64()
		sub, _ := subtotal.Float64()
		fields[VATFieldKey] = map[string]any{
			"enabled":  true,
			"rate":     rate,
			"number":   vat.Number,
			"amount":   amount,
			"subtotal": sub,
		}
	} else {
		delete(fields, VATFieldKey)
	}

	return Summary{
		Subtotal:     subtotal,
		VAT:          vat,
		VATAmount:    vatAmount,
		Total:        total,
		CustomFields: fields,
	}
}

// TotalAmount returns the summary total as a float for storage.
func (s Summary) TotalAmount() float64 {
	v, _ := s.Total.Float64()
	return v
}

func readVATDetails(customFields map[string]any) VATDetails {
	raw, ok := customFields[VATFieldKey]
	if !ok {
		return VATDetails{}
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		return VATDetails{}
	}

	details := VATDetails{}
	if enabled, ok := entry["enabled"].(bool); ok {
		details.Enabled = enabled
	}
	details.Rate = toDecimal(entry["rate"])
	if number, ok := entry["number"].(string); ok {
		details.Number = number
	}
	return details
}

// toDecimal coerces the loosely-typed values JSON columns hand back.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return decimal.NewFromFloat(f)
		}
	}
	return decimal.Zero
}
