package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns invoices. The company and bank fields feed
// the template placeholder set when rendering generated invoices.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string

	CompanyName *string
	LogoPath    *string

	// Bank details shown on rendered invoices.
	AccountHolderName *string
	BankName          *string
	AccountName       *string
	AccountNumber     *string
	IBAN              *string
	BIC               *string
	SortCode          *string
	SwiftCode         *string
	RoutingNumber     *string
	BankAddress       *string
	AdditionalInfo    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeliveryMethod selects whose mailbox outgoing invoices are sent from.
type DeliveryMethod string

const (
	// DeliveryMethodCustom sends through the user's own SMTP credentials.
	DeliveryMethodCustom DeliveryMethod = "custom"
	// DeliveryMethodDefault sends through the platform sender on the
	// user's behalf, with reply-to pointing back at the user.
	DeliveryMethodDefault DeliveryMethod = "default"
)

// EmailSettings is a user's outbound delivery configuration. The payment
// credentials live here too; they gate payment-link generation.
type EmailSettings struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	DeliveryMethod DeliveryMethod

	// Custom sender credentials. AppPassword is an app-specific password,
	// never the account password.
	Email       *string
	AppPassword *string
	SMTPHost    *string
	SMTPPort    *int

	PayPalClientID  *string
	PayPalSecret    *string
	StripeSecretKey *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailTemplate is a user-authored subject and body with handlebars-style
// placeholders.
type EmailTemplate struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Name    string
	Subject string
	Content string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceTemplate is a stored HTML layout rendered to PDF when a generated
// invoice is delivered.
type InvoiceTemplate struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
	HTML   string

	CreatedAt time.Time
	UpdatedAt time.Time
}
