package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dagfinn/faktura/internal/domain"
)

// DefaultPayPalBaseURL is the sandbox endpoint; production deployments
// override it through configuration.
const DefaultPayPalBaseURL = "https://api-m.sandbox.paypal.com"

// PayPalLinkSource creates orders through PayPal's REST API and returns
// the buyer approval URL. There is no official Go SDK, so this speaks
// HTTP directly: client-credentials OAuth, then order creation.
type PayPalLinkSource struct {
	baseURL   string
	returnURL string
	cancelURL string
	client    *http.Client
}

// NewPayPalLinkSource creates a PayPal link source.
func NewPayPalLinkSource(baseURL, returnURL, cancelURL string) *PayPalLinkSource {
	if baseURL == "" {
		baseURL = DefaultPayPalBaseURL
	}
	return &PayPalLinkSource{
		baseURL:   strings.TrimRight(baseURL, "/"),
		returnURL: returnURL,
		cancelURL: cancelURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type paypalOrderRequest struct {
	Intent             string               `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit `json:"purchase_units"`
	ApplicationContext paypalAppContext     `json:"application_context"`
}

type paypalPurchaseUnit struct {
	Amount      paypalAmount `json:"amount"`
	Description string       `json:"description"`
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalAppContext struct {
	UserAction string `json:"user_action"`
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// PaymentLink authenticates with the user's PayPal app credentials,
// creates a CAPTURE order for the invoice total and returns the approval
// link.
func (p *PayPalLinkSource) PaymentLink(ctx context.Context, inv *domain.Invoice, clientID, secret string) (string, error) {
	if clientID == "" || secret == "" {
		return "", ErrNoCredentials
	}
	if inv.TotalAmount == nil {
		return "", domain.Invalid("payment.paypal", "invoice has no total amount")
	}

	token, err := p.accessToken(ctx, clientID, secret)
	if err != nil {
		return "", err
	}

	currency := inv.Currency
	if currency == "" {
		currency = "USD"
	}

	order := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{
			{
				Amount: paypalAmount{
					CurrencyCode: currency,
					Value:        strconv.FormatFloat(*inv.TotalAmount, 'f', 2, 64),
				},
				Description: fmt.Sprintf("Payment for Invoice %s", inv.ID),
			},
		},
		ApplicationContext: paypalAppContext{
			UserAction: "PAY_NOW",
			ReturnURL:  fmt.Sprintf("%s?invoiceId=%s", p.returnURL, inv.ID),
			CancelURL:  p.cancelURL,
		},
	}

	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("encode paypal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/checkout/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create paypal order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("create paypal order: status %d: %s", resp.StatusCode, detail)
	}

	var parsed paypalOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode paypal order: %w", err)
	}
	if parsed.Status != "CREATED" {
		return "", fmt.Errorf("paypal order not created: status %s", parsed.Status)
	}

	for _, link := range parsed.Links {
		if link.Rel == "approve" {
			return link.Href, nil
		}
	}
	return "", fmt.Errorf("paypal order %s has no approval link", parsed.ID)
}

func (p *PayPalLinkSource) accessToken(ctx context.Context, clientID, secret string) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(clientID, secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal auth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("paypal auth: status %d: %s", resp.StatusCode, detail)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode paypal auth: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("paypal auth: empty access token")
	}
	return parsed.AccessToken, nil
}
