package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dagfinn/faktura/internal/activity"
	"github.com/dagfinn/faktura/internal/domain"
	"github.com/dagfinn/faktura/internal/email"
	"github.com/dagfinn/faktura/internal/finance"
	"github.com/dagfinn/faktura/internal/payment"
	"github.com/dagfinn/faktura/internal/pdf"
	"github.com/dagfinn/faktura/internal/render"
)

// DeliveryOutcome reports what the pipeline managed to do. Delivery never
// fails the generation cycle; a failed send leaves the invoice in Draft
// and is visible in the activity trail.
type DeliveryOutcome struct {
	EmailSent   bool
	PDFAttached bool
	Reason      string
}

// DeliveryPipeline renders and sends a generated invoice: payment links,
// templated subject and body, an optional PDF attachment, one SMTP send.
// Every step short of the send itself degrades instead of aborting.
type DeliveryPipeline struct {
	users         domain.UserStore
	invoices      domain.InvoiceStore
	activity      *activity.Recorder
	renderer      pdf.Renderer
	payments      payment.Linker
	newSender     email.SenderFactory
	defaultSender email.DefaultSender
	logger        *slog.Logger
}

// NewDeliveryPipeline wires the pipeline. newSender may be nil, in which
// case real SMTP senders are built per resolved identity.
func NewDeliveryPipeline(
	users domain.UserStore,
	invoices domain.InvoiceStore,
	recorder *activity.Recorder,
	renderer pdf.Renderer,
	payments payment.Linker,
	defaultSender email.DefaultSender,
	newSender email.SenderFactory,
	logger *slog.Logger,
) *DeliveryPipeline {
	if newSender == nil {
		newSender = func(cfg email.SMTPConfig) email.Sender {
			return email.NewSMTPSender(cfg)
		}
	}
	if renderer == nil {
		renderer = pdf.Disabled{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryPipeline{
		users:         users,
		invoices:      invoices,
		activity:      recorder,
		renderer:      renderer,
		payments:      payments,
		newSender:     newSender,
		defaultSender: defaultSender,
		logger:        logger,
	}
}

// Deliver emails the generated invoice on behalf of the template's owner.
// tmpl carries the delivery configuration (template IDs, owner), generated
// is the freshly created invoice with its recomputed summary.
func (p *DeliveryPipeline) Deliver(ctx context.Context, tmpl, generated *domain.Invoice, items []domain.LineItem, summary finance.Summary) DeliveryOutcome {
	settings, err := p.users.GetEmailSettings(ctx, tmpl.UserID)
	if err != nil {
		return p.fail(ctx, tmpl, generated, "email settings unavailable", err)
	}
	user, err := p.users.GetUser(ctx, tmpl.UserID)
	if err != nil {
		return p.fail(ctx, tmpl, generated, "user record unavailable", err)
	}

	identity, err := email.ResolveIdentity(settings, user, p.defaultSender)
	if err != nil {
		return p.fail(ctx, tmpl, generated, "delivery identity unresolved", err)
	}

	paypalLink, stripeLink := p.paymentLinks(ctx, generated, settings)

	rctx := render.Context{
		Invoice:     generated,
		User:        user,
		SenderEmail: identity.From,
		Tasks:       items,
		Summary:     summary,
		PayPalLink:  paypalLink,
		StripeLink:  stripeLink,
	}

	subject, body := p.composeMessage(ctx, tmpl, generated, rctx)

	var attachments []email.Attachment
	var outcome DeliveryOutcome
	if html, pdfBytes, ok := p.renderDocument(ctx, tmpl, rctx); ok {
		attachments = append(attachments, email.Attachment{
			Filename:    fmt.Sprintf("invoice-%s.pdf", displayNumber(generated)),
			Content:     pdfBytes,
			ContentType: "application/pdf",
		})
		outcome.PDFAttached = true

		// Provenance is bookkeeping; losing it must not lose the send.
		if err := p.invoices.MarkTemplateSent(ctx, generated.ID, html); err != nil {
			p.logger.Warn("delivery: failed to record template provenance",
				"invoice_id", generated.ID.String(), "error", err)
		}
	}

	recipient := p.recipient(generated, settings, identity)

	sender := p.newSender(identity.SMTP)
	_, err = sender.Send(ctx, &email.Email{
		To:          []string{recipient},
		From:        identity.From,
		ReplyTo:     identity.ReplyTo,
		Cc:          identity.Cc,
		Subject:     subject,
		TextBody:    body,
		Attachments: attachments,
	})
	if err != nil {
		p.record(ctx, tmpl, generated, domain.ActivityRecurringFailed,
			fmt.Sprintf("Failed to send recurring invoice email for %s", generated.Client),
			map[string]any{"client": generated.Client, "error": err.Error()})
		outcome.Reason = fmt.Sprintf("send failed: %v", err)
		return outcome
	}

	outcome.EmailSent = true

	if err := p.invoices.UpdateInvoiceStatus(ctx, generated.ID, domain.StatusSent); err != nil {
		p.logger.Error("delivery: email sent but status update failed",
			"invoice_id", generated.ID.String(), "error", err)
	} else {
		generated.Status = domain.StatusSent
	}

	p.record(ctx, tmpl, generated, domain.ActivityRecurringEmailSent,
		fmt.Sprintf("Recurring invoice email sent to %s (%s)", generated.Client, recipient),
		map[string]any{
			"client":      generated.Client,
			"recipient":   recipient,
			"totalAmount": derefFloat(generated.TotalAmount),
		})

	return outcome
}

// paymentLinks generates hosted payment links for whichever providers the
// user configured. Both are best-effort.
func (p *DeliveryPipeline) paymentLinks(ctx context.Context, generated *domain.Invoice, settings *domain.EmailSettings) (paypalLink, stripeLink string) {
	if p.payments == nil {
		return "", ""
	}

	if settings.PayPalClientID != nil && settings.PayPalSecret != nil {
		link, err := p.payments.PayPalPaymentLink(ctx, generated, *settings.PayPalClientID, *settings.PayPalSecret)
		if err != nil {
			p.logger.Warn("delivery: paypal link generation failed",
				"invoice_id", generated.ID.String(), "error", err)
		} else {
			paypalLink = link
			p.record(ctx, generated, generated, domain.ActivityPaymentLinkGenerated,
				"PayPal payment link generated for invoice",
				map[string]any{"paymentMethod": "PayPal", "amount": derefFloat(generated.TotalAmount), "currency": generated.Currency})
		}
	}

	if settings.StripeSecretKey != nil && *settings.StripeSecretKey != "" {
		link, err := p.payments.StripePaymentLink(ctx, generated, *settings.StripeSecretKey)
		if err != nil {
			p.logger.Warn("delivery: stripe link generation failed",
				"invoice_id", generated.ID.String(), "error", err)
		} else {
			stripeLink = link
			p.record(ctx, generated, generated, domain.ActivityPaymentLinkGenerated,
				"Stripe payment link generated for invoice",
				map[string]any{"paymentMethod": "Stripe", "amount": derefFloat(generated.TotalAmount), "currency": generated.Currency})
		}
	}

	return paypalLink, stripeLink
}

// composeMessage renders the user's email template when one is set,
// falling back to a generic subject and body otherwise.
func (p *DeliveryPipeline) composeMessage(ctx context.Context, tmpl, generated *domain.Invoice, rctx render.Context) (subject, body string) {
	number := displayNumber(generated)
	workType := "Your Invoice"
	if generated.WorkType != nil && *generated.WorkType != "" {
		workType = *generated.WorkType
	}
	subject = fmt.Sprintf("Invoice %s - %s", number, workType)
	body = fmt.Sprintf("Please find attached your invoice #%s for %s %.2f.",
		number, generated.Currency, derefFloat(generated.TotalAmount))

	if tmpl.EmailTemplateID == nil {
		return subject, body
	}

	emailTemplate, err := p.users.GetEmailTemplate(ctx, *tmpl.EmailTemplateID, tmpl.UserID)
	if err != nil {
		p.logger.Warn("delivery: email template unavailable, using default message",
			"template_id", tmpl.EmailTemplateID.String(), "error", err)
		return subject, body
	}

	data := render.EmailPlaceholders(rctx)
	renderedSubject, err := render.Render(emailTemplate.Subject, data)
	if err != nil {
		p.logger.Warn("delivery: subject render failed, using default", "error", err)
		return subject, body
	}
	renderedBody, err := render.Render(emailTemplate.Content, data)
	if err != nil {
		p.logger.Warn("delivery: body render failed, using default", "error", err)
		return subject, body
	}

	return renderedSubject, renderedBody
}

// renderDocument produces the PDF attachment when the template has a
// layout configured. Any failure renders as "no attachment".
func (p *DeliveryPipeline) renderDocument(ctx context.Context, tmpl *domain.Invoice, rctx render.Context) (html string, pdfBytes []byte, ok bool) {
	if tmpl.InvoiceTemplateID == nil {
		return "", nil, false
	}

	layout, err := p.users.GetInvoiceTemplate(ctx, *tmpl.InvoiceTemplateID, tmpl.UserID)
	if err != nil {
		p.logger.Warn("delivery: invoice layout unavailable, sending without attachment",
			"template_id", tmpl.InvoiceTemplateID.String(), "error", err)
		return "", nil, false
	}
	if layout.HTML == "" {
		return "", nil, false
	}

	html, err = render.Render(layout.HTML, render.DocumentPlaceholders(rctx))
	if err != nil {
		p.logger.Warn("delivery: layout render failed, sending without attachment", "error", err)
		return "", nil, false
	}

	pdfBytes, err = p.renderer.RenderHTML(ctx, html)
	if err != nil {
		p.logger.Warn("delivery: pdf render failed, sending without attachment", "error", err)
		return "", nil, false
	}

	return html, pdfBytes, true
}

// recipient picks the destination mailbox: the invoice's client when
// known, otherwise the resolved sender's own address.
func (p *DeliveryPipeline) recipient(generated *domain.Invoice, settings *domain.EmailSettings, identity *email.Identity) string {
	if generated.ClientEmail != nil && *generated.ClientEmail != "" {
		return *generated.ClientEmail
	}
	if settings.Email != nil && *settings.Email != "" {
		return *settings.Email
	}
	return identity.From
}

func (p *DeliveryPipeline) fail(ctx context.Context, tmpl, generated *domain.Invoice, reason string, err error) DeliveryOutcome {
	p.logger.Warn("delivery: skipped", "invoice_id", generated.ID.String(), "reason", reason, "error", err)
	p.record(ctx, tmpl, generated, domain.ActivityRecurringFailed,
		fmt.Sprintf("Failed to send recurring invoice email for %s", generated.Client),
		map[string]any{"client": generated.Client, "error": err.Error()})
	return DeliveryOutcome{Reason: reason}
}

func (p *DeliveryPipeline) record(ctx context.Context, owner, generated *domain.Invoice, typ domain.ActivityType, text string, metadata map[string]any) {
	if p.activity == nil {
		return
	}
	invoiceID := generated.ID
	p.activity.Record(ctx, owner.UserID, typ, text, &invoiceID, metadata)
}

func displayNumber(inv *domain.Invoice) string {
	if inv.InvoiceNumber != nil && *inv.InvoiceNumber != "" {
		return *inv.InvoiceNumber
	}
	return inv.ID.String()
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
