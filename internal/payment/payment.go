// Package payment generates hosted payment links for generated invoices.
// Link generation is best-effort: the delivery pipeline sends without a
// link when a provider declines or credentials are absent.
package payment

import (
	"context"
	"errors"

	"github.com/dagfinn/faktura/internal/domain"
)

// ErrNoCredentials indicates the user has not configured the provider.
var ErrNoCredentials = errors.New("payment provider credentials not configured")

// Linker builds hosted payment links against external providers.
type Linker interface {
	StripePaymentLink(ctx context.Context, inv *domain.Invoice, secretKey string) (string, error)
	PayPalPaymentLink(ctx context.Context, inv *domain.Invoice, clientID, secret string) (string, error)
}

// Provider implements Linker with real Stripe and PayPal backends.
type Provider struct {
	Stripe *StripeLinkSource
	PayPal *PayPalLinkSource
}

// NewProvider wires both backends from redirect URLs.
func NewProvider(successURL, cancelURL, paypalBaseURL, paypalReturnURL, paypalCancelURL string) *Provider {
	return &Provider{
		Stripe: NewStripeLinkSource(successURL, cancelURL),
		PayPal: NewPayPalLinkSource(paypalBaseURL, paypalReturnURL, paypalCancelURL),
	}
}

func (p *Provider) StripePaymentLink(ctx context.Context, inv *domain.Invoice, secretKey string) (string, error) {
	return p.Stripe.PaymentLink(ctx, inv, secretKey)
}

func (p *Provider) PayPalPaymentLink(ctx context.Context, inv *domain.Invoice, clientID, secret string) (string, error) {
	return p.PayPal.PaymentLink(ctx, inv, clientID, secret)
}
