package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dagfinn/faktura/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// Compile-time check to ensure UserStore implements domain.UserStore.
var _ domain.UserStore = (*UserStore)(nil)

// NewUserStore creates a new UserStore instance.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// GetUser fetches a user by ID.
func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, company_name, logo_path,
		       account_holder_name, bank_name, account_name, account_number,
		       iban, bic, sort_code, swift_code, routing_number, bank_address,
		       additional_info, created_at, updated_at
		FROM users
		WHERE id = $1`, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.CompanyName, &u.LogoPath,
		&u.AccountHolderName, &u.BankName, &u.AccountName, &u.AccountNumber,
		&u.IBAN, &u.BIC, &u.SortCode, &u.SwiftCode, &u.RoutingNumber, &u.BankAddress,
		&u.AdditionalInfo, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("user.get", "user", id.String())
		}
		return nil, domain.Internal(err, "user.get", "failed to query user")
	}

	return &u, nil
}

// GetEmailSettings fetches a user's delivery configuration.
func (s *UserStore) GetEmailSettings(ctx context.Context, userID uuid.UUID) (*domain.EmailSettings, error) {
	var es domain.EmailSettings
	var method string
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, delivery_method, email, app_password,
		       smtp_host, smtp_port, paypal_client_id, paypal_secret,
		       stripe_secret_key, created_at, updated_at
		FROM email_settings
		WHERE user_id = $1`, userID).Scan(
		&es.ID, &es.UserID, &method, &es.Email, &es.AppPassword,
		&es.SMTPHost, &es.SMTPPort, &es.PayPalClientID, &es.PayPalSecret,
		&es.StripeSecretKey, &es.CreatedAt, &es.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("email_settings.get", "email settings", userID.String())
		}
		return nil, domain.Internal(err, "email_settings.get", "failed to query email settings")
	}

	es.DeliveryMethod = domain.DeliveryMethod(method)
	return &es, nil
}

// GetEmailTemplate fetches a template scoped to its owner.
func (s *UserStore) GetEmailTemplate(ctx context.Context, id, userID uuid.UUID) (*domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, subject, content, created_at, updated_at
		FROM email_templates
		WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Subject, &t.Content, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("email_template.get", "email template", id.String())
		}
		return nil, domain.Internal(err, "email_template.get", "failed to query email template")
	}

	return &t, nil
}

// GetInvoiceTemplate fetches a PDF layout scoped to its owner.
func (s *UserStore) GetInvoiceTemplate(ctx context.Context, id, userID uuid.UUID) (*domain.InvoiceTemplate, error) {
	var t domain.InvoiceTemplate
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, template_html, created_at, updated_at
		FROM invoice_templates
		WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&t.ID, &t.UserID, &t.Name, &t.HTML, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("invoice_template.get", "invoice template", id.String())
		}
		return nil, domain.Internal(err, "invoice_template.get", "failed to query invoice template")
	}

	return &t, nil
}
