package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/email"
	"github.com/dagfinn/faktura/internal/finance"
)

func mustUUID(s string) uuid.UUID { return uuid.MustParse(s) }

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
func intPtr(v int) *int           { return &v }
func freqPtr(f domain.Frequency) *domain.Frequency { return &f }

// fakeInvoiceStore is an in-memory domain.InvoiceStore for tests.
type fakeInvoiceStore struct {
	mu sync.Mutex

	templates []domain.Invoice
	latest    *domain.Invoice
	latestErr error

	createErr error

	created      []*domain.Invoice
	createdItems []domain.LineItem
	statuses     map[uuid.UUID]domain.DocumentStatus
	provenance   map[uuid.UUID]string
	advancedNext map[uuid.UUID]time.Time
	advancedCnt  map[uuid.UUID]int
	stopped      []uuid.UUID
}

var _ domain.InvoiceStore = (*fakeInvoiceStore)(nil)

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{
		statuses:     map[uuid.UUID]domain.DocumentStatus{},
		provenance:   map[uuid.UUID]string{},
		advancedNext: map[uuid.UUID]time.Time{},
		advancedCnt:  map[uuid.UUID]int{},
	}
}

func (s *fakeInvoiceStore) FindDueRecurring(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Invoice, len(s.templates))
	copy(out, s.templates)
	return out, nil
}

func (s *fakeInvoiceStore) LatestNumberedInvoice(ctx context.Context) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	if s.latest == nil {
		return nil, domain.NotFound("invoice.latest_numbered", "invoice", "latest")
	}
	return s.latest, nil
}

func (s *fakeInvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, inv)
	s.latest = inv
	return nil
}

func (s *fakeInvoiceStore) CreateLineItems(ctx context.Context, items []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createdItems = append(s.createdItems, items...)
	return nil
}

func (s *fakeInvoiceStore) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return nil
}

func (s *fakeInvoiceStore) MarkTemplateSent(ctx context.Context, id uuid.UUID, renderedHTML string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provenance[id] = renderedHTML
	return nil
}

func (s *fakeInvoiceStore) AdvanceRecurrence(ctx context.Context, id uuid.UUID, next time.Time, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advancedNext[id] = next
	s.advancedCnt[id] = count
	return nil
}

func (s *fakeInvoiceStore) StopRecurrence(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, id)
	return nil
}

// fakeUserStore serves fixed owner records.
type fakeUserStore struct {
	user             *domain.User
	settings         *domain.EmailSettings
	emailTemplates   map[uuid.UUID]*domain.EmailTemplate
	invoiceTemplates map[uuid.UUID]*domain.InvoiceTemplate
}

var _ domain.UserStore = (*fakeUserStore)(nil)

func (s *fakeUserStore) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if s.user == nil {
		return nil, domain.NotFound("user.get", "user", id.String())
	}
	return s.user, nil
}

func (s *fakeUserStore) GetEmailSettings(ctx context.Context, userID uuid.UUID) (*domain.EmailSettings, error) {
	if s.settings == nil {
		return nil, domain.NotFound("email_settings.get", "email settings", userID.String())
	}
	return s.settings, nil
}

func (s *fakeUserStore) GetEmailTemplate(ctx context.Context, id, userID uuid.UUID) (*domain.EmailTemplate, error) {
	if t, ok := s.emailTemplates[id]; ok {
		return t, nil
	}
	return nil, domain.NotFound("email_template.get", "email template", id.String())
}

func (s *fakeUserStore) GetInvoiceTemplate(ctx context.Context, id, userID uuid.UUID) (*domain.InvoiceTemplate, error) {
	if t, ok := s.invoiceTemplates[id]; ok {
		return t, nil
	}
	return nil, domain.NotFound("invoice_template.get", "invoice template", id.String())
}

// fakeActivityStore captures audit rows.
type fakeActivityStore struct {
	mu         sync.Mutex
	activities []domain.Activity
}

var _ domain.ActivityStore = (*fakeActivityStore)(nil)

func (s *fakeActivityStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, *a)
	return nil
}

func (s *fakeActivityStore) byType(typ domain.ActivityType) []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Activity
	for _, a := range s.activities {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

// fakeSender captures outbound mail, optionally failing every send.
type fakeSender struct {
	mu      sync.Mutex
	sent    []*email.Email
	sendErr error
}

var _ email.Sender = (*fakeSender)(nil)

func (s *fakeSender) Send(ctx context.Context, e *email.Email) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sent = append(s.sent, e)
	return "msg-1", nil
}

func (s *fakeSender) factory() email.SenderFactory {
	return func(cfg email.SMTPConfig) email.Sender { return s }
}

// fakeRenderer returns canned PDF bytes.
type fakeRenderer struct {
	out []byte
	err error
}

func (r *fakeRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.out, nil
}

// fakeLinker returns canned payment links.
type fakeLinker struct {
	stripeLink string
	stripeErr  error
	paypalLink string
	paypalErr  error
}

func (l *fakeLinker) StripePaymentLink(ctx context.Context, inv *domain.Invoice, secretKey string) (string, error) {
	return l.stripeLink, l.stripeErr
}

func (l *fakeLinker) PayPalPaymentLink(ctx context.Context, inv *domain.Invoice, clientID, secret string) (string, error) {
	return l.paypalLink, l.paypalErr
}

// fakeDeliverer records delivery calls and returns a fixed outcome.
type fakeDeliverer struct {
	mu       sync.Mutex
	calls    int
	outcome  DeliveryOutcome
	lastTmpl *domain.Invoice
	lastGen  *domain.Invoice
}

func (d *fakeDeliverer) Deliver(ctx context.Context, tmpl, generated *domain.Invoice, items []domain.LineItem, summary finance.Summary) DeliveryOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.lastTmpl = tmpl
	d.lastGen = generated
	return d.outcome
}
