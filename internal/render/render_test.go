package render

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/finance"
)

func strPtr(v string) *string    { return &v }
func floatPtr(v float64) *float64 { return &v }

func testContext() Context {
	total := 110.0
	inv := &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: strPtr("INV-0042"),
		Client:        "Acme Corp",
		Currency:      "EUR",
		TotalAmount:   &total,
		Date:          time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		WorkType:      strPtr("Consulting"),
		ItemStructure: domain.ItemStructureHourly,
	}
	user := &domain.User{
		Name:        "Dag Finnsson",
		Email:       "dag@example.com",
		CompanyName: strPtr("Finnsson Consulting"),
		IBAN:        strPtr("NL02ABNA0123456789"),
	}
	items := []domain.LineItem{
		{Description: "Architecture review", Total: floatPtr(60), Hours: floatPtr(4), Rate: floatPtr(15)},
		{Description: "Implementation", Total: floatPtr(40)},
	}
	return Context{
		Invoice: inv,
		User:    user,
		Tasks:   items,
		Summary: finance.BuildSummary(items, map[string]any{
			finance.VATFieldKey: map[string]any{"enabled": true, "rate": 10.0},
		}, &total),
	}
}

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	out, err := Render("Invoice {{invoice_number}} for {{client_name}}: {{total_amount}}", EmailPlaceholders(testContext()))
	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-0042 for Acme Corp: EUR 110", out)
}

func TestRender_EachTasksBlock(t *testing.T) {
	tpl := "{{#each tasks}}{{description}}:{{total}};{{/each}}"
	out, err := Render(tpl, DocumentPlaceholders(testContext()))
	require.NoError(t, err)
	assert.Equal(t, "Architecture review:60;Implementation:40;", out)
}

func TestRender_BadTemplateReturnsInvalid(t *testing.T) {
	_, err := Render("{{#each tasks}}unterminated", EmailPlaceholders(testContext()))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestEmailPlaceholders(t *testing.T) {
	data := EmailPlaceholders(testContext())

	assert.Equal(t, "Acme Corp", data["clientName"])
	assert.Equal(t, "INV-0042", data["invoice_number"])
	assert.Equal(t, "EUR", data["currency"])
	assert.Equal(t, "€", data["currencySymbol"])
	assert.Equal(t, "3/5/2025", data["invoice_date"])
	assert.Equal(t, "Finnsson Consulting", data["company_name"])
	assert.Equal(t, "Dag Finnsson", data["userName"])
	assert.Equal(t, "NL02ABNA0123456789", data["iban"])
	// Both casings for bank details.
	assert.Equal(t, data["sort_code"], data["sortCode"])
}

func TestDocumentPlaceholders(t *testing.T) {
	data := DocumentPlaceholders(testContext())

	assert.Equal(t, "€110", data["total_amount"])
	assert.Equal(t, "110.00", data["totalAmount"])
	assert.Equal(t, "hourly", data["item_structure"])
	assert.Equal(t, "100.00", data["subtotal"])
	assert.Equal(t, 10.0, data["tax_rate"])
	assert.Equal(t, "10.00", data["tax_amount"])

	tasks, ok := data["tasks"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, tasks, 2)
	assert.Equal(t, 4.0, tasks[0]["hours"])
	// Absent optional fields stay absent.
	assert.NotContains(t, tasks[1], "hours")
}

func TestPlaceholders_Fallbacks(t *testing.T) {
	c := testContext()
	c.User = &domain.User{}
	c.SenderEmail = "sender@example.com"
	c.Invoice.InvoiceNumber = nil
	c.Invoice.Currency = ""

	data := EmailPlaceholders(c)

	assert.Equal(t, "Your Company", data["company_name"])
	assert.Equal(t, "sender@example.com", data["userName"])
	assert.Equal(t, c.Invoice.ID.String(), data["invoice_number"])
	assert.Equal(t, "USD", data["currency"])
	assert.Nil(t, data["companyLogo"])
	assert.Nil(t, data["paypalPaymentLink"])
}
