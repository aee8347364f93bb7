package email

import (
	"strings"

	"github.com/dagfinn/faktura/internal/domain"
)

// DefaultSender is the platform mailbox used when a user delegates
// delivery instead of supplying their own credentials.
type DefaultSender struct {
	Email    string
	Password string
	From     string // display sender, falls back to Email
	Host     string
	Port     int
}

// Configured reports whether the platform sender can actually be used.
func (d DefaultSender) Configured() bool {
	return d.Email != "" && d.Password != "" && d.Host != ""
}

// Identity is a fully resolved delivery identity: where to connect and
// which addresses to put on the wire.
type Identity struct {
	SMTP    SMTPConfig
	From    string
	ReplyTo string
	Cc      []string

	// UsesDefaultSender is true when mail goes out through the platform
	// mailbox on the user's behalf.
	UsesDefaultSender bool
}

// ResolveIdentity turns a user's email settings into a concrete delivery
// identity. Platform delivery keeps the conversation with the user by
// setting reply-to and cc to their own address.
func ResolveIdentity(settings *domain.EmailSettings, user *domain.User, def DefaultSender) (*Identity, error) {
	if settings == nil {
		return nil, ErrMissingSettings
	}

	if settings.DeliveryMethod == domain.DeliveryMethodDefault {
		if !def.Configured() {
			return nil, ErrDefaultUnavailable
		}
		from := def.From
		if from == "" {
			from = def.Email
		}
		identity := &Identity{
			SMTP: SMTPConfig{
				Host:     def.Host,
				Port:     def.Port,
				Username: def.Email,
				Password: def.Password,
			},
			From:              from,
			UsesDefaultSender: true,
		}
		if user != nil && user.Email != "" {
			identity.ReplyTo = user.Email
			identity.Cc = []string{user.Email}
		}
		return identity, nil
	}

	// Custom delivery through the user's own mailbox.
	if settings.Email == nil || *settings.Email == "" || settings.AppPassword == nil || *settings.AppPassword == "" {
		return nil, ErrIncompleteCredentials
	}

	address := *settings.Email
	host, port := providerEndpoint(address, settings)

	return &Identity{
		SMTP: SMTPConfig{
			Host:     host,
			Port:     port,
			Username: address,
			Password: *settings.AppPassword,
		},
		From: address,
	}, nil
}

// providerEndpoint picks the SMTP endpoint from the sender's mail domain,
// honoring explicit overrides before falling back to Office 365.
func providerEndpoint(address string, settings *domain.EmailSettings) (string, int) {
	mailDomain := ""
	if at := strings.LastIndex(address, "@"); at >= 0 {
		mailDomain = strings.ToLower(address[at+1:])
	}

	switch {
	case strings.Contains(mailDomain, "gmail"):
		return "smtp.gmail.com", 465
	case strings.Contains(mailDomain, "outlook"),
		strings.Contains(mailDomain, "hotmail"),
		strings.Contains(mailDomain, "live"):
		return "smtp-mail.outlook.com", 587
	}

	host := "smtp.office365.com"
	if settings.SMTPHost != nil && *settings.SMTPHost != "" {
		host = *settings.SMTPHost
	}
	port := 587
	if settings.SMTPPort != nil && *settings.SMTPPort != 0 {
		port = *settings.SMTPPort
	}
	return host, port
}
