package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dagfinn/faktura/internal/domain"
)

// InvoiceStore implements domain.InvoiceStore using PostgreSQL.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// Compile-time check to ensure InvoiceStore implements domain.InvoiceStore.
var _ domain.InvoiceStore = (*InvoiceStore)(nil)

// NewInvoiceStore creates a new InvoiceStore instance.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{pool: pool}
}

const invoiceColumns = `
	id, user_id, invoice_number, client, client_email, date, work_type,
	currency, total_amount, status, item_structure,
	is_recurring, frequency, recurring_start_date, recurring_end_date,
	next_recurring_date, recurring_count, max_recurrences,
	day_of_month, day_of_week, month_of_year, quarter_month, recurring_time,
	parent_invoice_id, is_first_recurring_invoice, auto_send_email,
	email_template_id, invoice_template_id, pdf_template_sent,
	sent_template_html, custom_fields, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv          domain.Invoice
		status       string
		structure    string
		frequency    *string
		customFields []byte
	)

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.Client, &inv.ClientEmail,
		&inv.Date, &inv.WorkType, &inv.Currency, &inv.TotalAmount, &status, &structure,
		&inv.IsRecurring, &frequency, &inv.RecurringStartDate, &inv.RecurringEndDate,
		&inv.NextRecurringDate, &inv.RecurringCount, &inv.MaxRecurrences,
		&inv.DayOfMonth, &inv.DayOfWeek, &inv.MonthOfYear, &inv.QuarterMonth, &inv.RecurringTime,
		&inv.ParentInvoiceID, &inv.IsFirstRecurringInvoice, &inv.AutoSendEmail,
		&inv.EmailTemplateID, &inv.InvoiceTemplateID, &inv.PDFTemplateSent,
		&inv.SentTemplateHTML, &customFields, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Status = domain.DocumentStatus(status)
	inv.ItemStructure = domain.ItemStructure(structure)
	if frequency != nil {
		f := domain.Frequency(*frequency)
		inv.Frequency = &f
	}
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &inv.CustomFields); err != nil {
			return nil, fmt.Errorf("failed to decode custom fields: %w", err)
		}
	}

	return &inv, nil
}

// FindDueRecurring returns templates whose cursor has come due and whose
// series has not passed its end date, with line items attached.
func (s *InvoiceStore) FindDueRecurring(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE is_recurring = TRUE
		  AND next_recurring_date IS NOT NULL
		  AND next_recurring_date <= $1
		  AND (recurring_end_date IS NULL OR recurring_end_date >= $1)
		ORDER BY next_recurring_date`, now)
	if err != nil {
		return nil, domain.Internal(err, "invoice.find_due", "failed to query due templates")
	}
	defer rows.Close()

	var invoices []domain.Invoice
	var ids []uuid.UUID
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.Internal(err, "invoice.find_due", "failed to scan template")
		}
		invoices = append(invoices, *inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.find_due", "failed to read due templates")
	}
	if len(invoices) == 0 {
		return nil, nil
	}

	itemsByInvoice, err := s.lineItemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		invoices[i].LineItems = itemsByInvoice[invoices[i].ID]
	}

	return invoices, nil
}

func (s *InvoiceStore) lineItemsFor(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID][]domain.LineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, description, total, hours, rate, quantity,
		       unit_price, days, amount
		FROM line_items
		WHERE invoice_id = ANY($1)
		ORDER BY created_at`, invoiceIDs)
	if err != nil {
		return nil, domain.Internal(err, "invoice.line_items", "failed to query line items")
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.LineItem)
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.ID, &item.InvoiceID, &item.Description, &item.Total,
			&item.Hours, &item.Rate, &item.Quantity, &item.UnitPrice,
			&item.Days, &item.Amount,
		); err != nil {
			return nil, domain.Internal(err, "invoice.line_items", "failed to scan line item")
		}
		out[item.InvoiceID] = append(out[item.InvoiceID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "invoice.line_items", "failed to read line items")
	}

	return out, nil
}

// LatestNumberedInvoice returns the newest invoice carrying a number.
func (s *InvoiceStore) LatestNumberedInvoice(ctx context.Context) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE invoice_number IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1`)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("invoice.latest_numbered", "invoice", "latest")
		}
		return nil, domain.Internal(err, "invoice.latest_numbered", "failed to query latest invoice")
	}

	return inv, nil
}

// CreateInvoice inserts a new invoice row.
func (s *InvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	customFields, err := json.Marshal(orEmpty(inv.CustomFields))
	if err != nil {
		return domain.Internal(err, "invoice.create", "failed to encode custom fields")
	}

	var frequency *string
	if inv.Frequency != nil {
		f := string(*inv.Frequency)
		frequency = &f
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32, $33)`,
		inv.ID, inv.UserID, inv.InvoiceNumber, inv.Client, inv.ClientEmail,
		inv.Date, inv.WorkType, inv.Currency, inv.TotalAmount, string(inv.Status), string(inv.ItemStructure),
		inv.IsRecurring, frequency, inv.RecurringStartDate, inv.RecurringEndDate,
		inv.NextRecurringDate, inv.RecurringCount, inv.MaxRecurrences,
		inv.DayOfMonth, inv.DayOfWeek, inv.MonthOfYear, inv.QuarterMonth, inv.RecurringTime,
		inv.ParentInvoiceID, inv.IsFirstRecurringInvoice, inv.AutoSendEmail,
		inv.EmailTemplateID, inv.InvoiceTemplateID, inv.PDFTemplateSent,
		inv.SentTemplateHTML, customFields, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return domain.Internal(err, "invoice.create", "failed to insert invoice")
	}

	return nil
}

// CreateLineItems inserts line items in a single batch.
func (s *InvoiceStore) CreateLineItems(ctx context.Context, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO line_items (
				id, invoice_id, description, total, hours, rate, quantity,
				unit_price, days, amount
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			item.ID, item.InvoiceID, item.Description, item.Total,
			item.Hours, item.Rate, item.Quantity, item.UnitPrice,
			item.Days, item.Amount,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return domain.Internal(err, "invoice.create_items", "failed to insert line item")
		}
	}

	return nil
}

// UpdateInvoiceStatus sets the invoice's lifecycle state.
func (s *InvoiceStore) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices SET status = $2, updated_at = now()
		WHERE id = $1`, id, string(status))
	if err != nil {
		return domain.Internal(err, "invoice.update_status", "failed to update status")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.update_status", "invoice", id.String())
	}

	return nil
}

// MarkTemplateSent records PDF layout provenance on the invoice.
func (s *InvoiceStore) MarkTemplateSent(ctx context.Context, id uuid.UUID, renderedHTML string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET pdf_template_sent = TRUE, sent_template_html = $2, updated_at = now()
		WHERE id = $1`, id, renderedHTML)
	if err != nil {
		return domain.Internal(err, "invoice.mark_template_sent", "failed to record template provenance")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.mark_template_sent", "invoice", id.String())
	}

	return nil
}

// AdvanceRecurrence moves the cursor forward. GREATEST keeps the cursor
// monotonic even if a stale value is handed in.
func (s *InvoiceStore) AdvanceRecurrence(ctx context.Context, id uuid.UUID, next time.Time, count int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET next_recurring_date = GREATEST(next_recurring_date, $2),
		    recurring_count = $3,
		    updated_at = now()
		WHERE id = $1`, id, next, count)
	if err != nil {
		return domain.Internal(err, "invoice.advance", "failed to advance recurrence")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.advance", "invoice", id.String())
	}

	return nil
}

// StopRecurrence terminates the series.
func (s *InvoiceStore) StopRecurrence(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET is_recurring = FALSE, next_recurring_date = NULL, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "invoice.stop", "failed to stop recurrence")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.stop", "invoice", id.String())
	}

	return nil
}

func orEmpty(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return fields
}
