// Package email sends invoice mail over SMTP. Connection parameters are
// resolved per send, since each user may deliver through their own
// mailbox or through the platform sender.
package email

import "context"

// Email is an outbound message.
type Email struct {
	To          []string
	From        string
	ReplyTo     string
	Cc          []string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
	Headers     map[string]string
}

// Attachment is a file attached to an email.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Sender delivers an email and returns a provider message ID.
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}

// SenderFactory builds a Sender for a resolved identity. Indirection
// exists so tests can capture outbound mail without a server.
type SenderFactory func(cfg SMTPConfig) Sender
