package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/dagfinn/faktura/internal/domain"
)

// StripeLinkSource creates Checkout sessions with the invoice owner's own
// secret key. A per-call client is used instead of the package-level key
// because every user brings their own Stripe account.
type StripeLinkSource struct {
	successURL string
	cancelURL  string
}

// NewStripeLinkSource creates a Stripe link source with redirect targets.
func NewStripeLinkSource(successURL, cancelURL string) *StripeLinkSource {
	return &StripeLinkSource{successURL: successURL, cancelURL: cancelURL}
}

// PaymentLink creates a one-off Checkout session for the invoice total and
// returns its hosted URL.
func (s *StripeLinkSource) PaymentLink(ctx context.Context, inv *domain.Invoice, secretKey string) (string, error) {
	if secretKey == "" {
		return "", ErrNoCredentials
	}
	if inv.TotalAmount == nil {
		return "", domain.Invalid("payment.stripe", "invoice has no total amount")
	}

	currency := inv.Currency
	if currency == "" {
		currency = "USD"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Payment for Invoice %s", inv.ID)),
					},
					UnitAmount: stripe.Int64(int64(math.Round(*inv.TotalAmount * 100))),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s?invoice=%s", s.successURL, inv.ID)),
		CancelURL:  stripe.String(s.cancelURL),
		Metadata: map[string]string{
			"invoiceId": inv.ID.String(),
		},
	}
	params.Context = ctx

	api := client.New(secretKey, nil)
	session, err := api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	return session.URL, nil
}
