package render

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dagfinn/faktura/internal/currency"
	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/finance"
)

// Context carries everything the placeholder set is built from.
type Context struct {
	Invoice *domain.Invoice
	User    *domain.User

	// SenderEmail backfills userName and company_address when the user
	// record has no usable value.
	SenderEmail string

	Tasks   []domain.LineItem
	Summary finance.Summary

	PayPalLink string
	StripeLink string
}

// EmailPlaceholders builds the substitution map for email subject and
// body templates. Keys come in both snake_case and camelCase because
// user templates in the wild use either.
func EmailPlaceholders(c Context) map[string]any {
	inv := c.Invoice
	number := invoiceNumber(inv)
	cur := currencyCode(inv)
	amount := fmt.Sprintf("%s %s", cur, formatAmount(inv.TotalAmount))
	invDate := inv.Date.Format("1/2/2006")

	data := map[string]any{
		"client_name":    inv.Client,
		"clientName":     inv.Client,
		"invoice_number": number,
		"invoiceId":      inv.ID.String(),
		"total_amount":   amount,
		"totalAmount":    amount,
		"currency":       cur,
		"currencySymbol": currency.Symbol(cur),
		"invoice_date":   invDate,
		"date":           invDate,
		"work_type":      deref(inv.WorkType),
		"workType":       deref(inv.WorkType),
	}

	addUserPlaceholders(data, c)
	addFinancials(data, c)
	addPaymentLinks(data, c)
	return data
}

// DocumentPlaceholders builds the substitution map for PDF layouts. It is
// a superset of the email set with line items and fixed-point amounts.
func DocumentPlaceholders(c Context) map[string]any {
	inv := c.Invoice
	number := invoiceNumber(inv)
	cur := currencyCode(inv)
	symbol := currency.Symbol(cur)
	invDate := inv.Date.Format("1/2/2006")

	data := map[string]any{
		"client_name":    inv.Client,
		"clientName":     inv.Client,
		"invoice_number": number,
		"invoiceId":      inv.ID.String(),
		"invoice_date":   invDate,
		"date":           invDate,
		"total_amount":   symbol + formatAmount(inv.TotalAmount),
		"totalAmount":    fixedAmount(inv.TotalAmount),
		"currency":       cur,
		"currencySymbol": symbol,
		"item_structure": string(inv.ItemStructure),
		"itemStructure":  string(inv.ItemStructure),
		"work_type":      deref(inv.WorkType),
		"workType":       deref(inv.WorkType),
		"tasks":          taskMaps(c.Tasks),
	}

	addUserPlaceholders(data, c)
	addFinancials(data, c)
	addPaymentLinks(data, c)
	return data
}

func addUserPlaceholders(data map[string]any, c Context) {
	u := c.User
	if u == nil {
		u = &domain.User{}
	}

	companyName := deref(u.CompanyName)
	if companyName == "" {
		companyName = "Your Company"
	}
	userName := u.Name
	if userName == "" {
		userName = c.SenderEmail
	}
	companyAddress := u.Email
	if companyAddress == "" {
		companyAddress = c.SenderEmail
	}

	data["company_name"] = companyName
	data["company_address"] = companyAddress
	data["companyLogo"] = logoDataURI(deref(u.LogoPath))
	data["userName"] = userName

	bank := map[string]*string{
		"account_holder_name": u.AccountHolderName,
		"accountHolderName":   u.AccountHolderName,
		"bank_name":           u.BankName,
		"bankName":            u.BankName,
		"account_name":        u.AccountName,
		"accountName":         u.AccountName,
		"account_number":      u.AccountNumber,
		"accountNumber":       u.AccountNumber,
		"iban":                u.IBAN,
		"bic":                 u.BIC,
		"sort_code":           u.SortCode,
		"sortCode":            u.SortCode,
		"swift_code":          u.SwiftCode,
		"swiftCode":           u.SwiftCode,
		"routing_number":      u.RoutingNumber,
		"routingNumber":       u.RoutingNumber,
		"bank_address":        u.BankAddress,
		"bankAddress":         u.BankAddress,
		"additional_info":     u.AdditionalInfo,
		"additionalInfo":      u.AdditionalInfo,
	}
	for key, v := range bank {
		data[key] = deref(v)
	}
}

func addFinancials(data map[string]any, c Context) {
	data["subtotal"] = c.Summary.Subtotal.StringFixed(2)
	if c.Summary.VAT.Enabled {
		rate, _ := c.Summary.VAT.Rate.Float64()
		data["tax_rate"] = rate
		data["tax_amount"] = c.Summary.VATAmount.StringFixed(2)
	} else {
		data["tax_rate"] = 0
		data["tax_amount"] = "0.00"
	}
}

func addPaymentLinks(data map[string]any, c Context) {
	data["paypalPaymentLink"] = orNil(c.PayPalLink)
	data["stripePaymentLink"] = orNil(c.StripeLink)
}

// taskMaps flattens line items into plain maps so {{#each tasks}} blocks
// can reach every field by its template name.
func taskMaps(items []domain.LineItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m := map[string]any{
			"description": item.Description,
			"total":       derefFloat(item.Total),
		}
		if item.Hours != nil {
			m["hours"] = *item.Hours
		}
		if item.Rate != nil {
			m["rate"] = *item.Rate
		}
		if item.Quantity != nil {
			m["quantity"] = *item.Quantity
		}
		if item.UnitPrice != nil {
			m["unitPrice"] = *item.UnitPrice
		}
		if item.Days != nil {
			m["days"] = *item.Days
		}
		if item.Amount != nil {
			m["amount"] = *item.Amount
		}
		out = append(out, m)
	}
	return out
}

func invoiceNumber(inv *domain.Invoice) string {
	if inv.InvoiceNumber != nil && *inv.InvoiceNumber != "" {
		return *inv.InvoiceNumber
	}
	return inv.ID.String()
}

func currencyCode(inv *domain.Invoice) string {
	if inv.Currency == "" {
		return "USD"
	}
	return inv.Currency
}

func formatAmount(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fixedAmount(v *float64) string {
	if v == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", *v)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func orNil(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// logoDataURI inlines a logo file as a data URI. Missing or unreadable
// files render as no logo.
func logoDataURI(path string) any {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	mimeType := "image/png"
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".gif":
		mimeType = "image/gif"
	case ".svg":
		mimeType = "image/svg+xml"
	case ".webp":
		mimeType = "image/webp"
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw))
}
