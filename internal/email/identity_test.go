package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagfinn/faktura/internal/domain"
)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func platformSender() DefaultSender {
	return DefaultSender{
		Email:    "billing@faktura.app",
		Password: "platform-secret",
		From:     "Faktura <billing@faktura.app>",
		Host:     "smtp.faktura.app",
		Port:     587,
	}
}

func TestResolveIdentity_MissingSettings(t *testing.T) {
	_, err := ResolveIdentity(nil, &domain.User{}, platformSender())
	assert.ErrorIs(t, err, ErrMissingSettings)
}

func TestResolveIdentity_DefaultDelivery(t *testing.T) {
	settings := &domain.EmailSettings{DeliveryMethod: domain.DeliveryMethodDefault}
	user := &domain.User{Email: "dag@example.com"}

	identity, err := ResolveIdentity(settings, user, platformSender())
	require.NoError(t, err)

	assert.True(t, identity.UsesDefaultSender)
	assert.Equal(t, "smtp.faktura.app", identity.SMTP.Host)
	assert.Equal(t, "billing@faktura.app", identity.SMTP.Username)
	assert.Equal(t, "Faktura <billing@faktura.app>", identity.From)
	// Replies go back to the user, and they get a copy.
	assert.Equal(t, "dag@example.com", identity.ReplyTo)
	assert.Equal(t, []string{"dag@example.com"}, identity.Cc)
}

func TestResolveIdentity_DefaultDeliveryUnconfigured(t *testing.T) {
	settings := &domain.EmailSettings{DeliveryMethod: domain.DeliveryMethodDefault}

	_, err := ResolveIdentity(settings, &domain.User{}, DefaultSender{})
	assert.ErrorIs(t, err, ErrDefaultUnavailable)
}

func TestResolveIdentity_CustomDeliveryRequiresCredentials(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmailSettings
	}{
		{"no email", &domain.EmailSettings{DeliveryMethod: domain.DeliveryMethodCustom, AppPassword: strPtr("pw")}},
		{"no password", &domain.EmailSettings{DeliveryMethod: domain.DeliveryMethodCustom, Email: strPtr("a@b.com")}},
		{"empty password", &domain.EmailSettings{DeliveryMethod: domain.DeliveryMethodCustom, Email: strPtr("a@b.com"), AppPassword: strPtr("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveIdentity(tt.settings, &domain.User{}, platformSender())
			assert.ErrorIs(t, err, ErrIncompleteCredentials)
		})
	}
}

func TestResolveIdentity_ProviderEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		smtpHost *string
		smtpPort *int
		wantHost string
		wantPort int
	}{
		{"gmail", "user@gmail.com", nil, nil, "smtp.gmail.com", 465},
		{"outlook", "user@outlook.com", nil, nil, "smtp-mail.outlook.com", 587},
		{"hotmail", "user@hotmail.co.uk", nil, nil, "smtp-mail.outlook.com", 587},
		{"live", "user@live.com", nil, nil, "smtp-mail.outlook.com", 587},
		{"office365 fallback", "user@consultancy.nl", nil, nil, "smtp.office365.com", 587},
		{"explicit override wins over fallback", "user@consultancy.nl", strPtr("mail.consultancy.nl"), intPtr(465), "mail.consultancy.nl", 465},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &domain.EmailSettings{
				DeliveryMethod: domain.DeliveryMethodCustom,
				Email:          strPtr(tt.email),
				AppPassword:    strPtr("app-pw"),
				SMTPHost:       tt.smtpHost,
				SMTPPort:       tt.smtpPort,
			}

			identity, err := ResolveIdentity(settings, &domain.User{}, platformSender())
			require.NoError(t, err)

			assert.Equal(t, tt.wantHost, identity.SMTP.Host)
			assert.Equal(t, tt.wantPort, identity.SMTP.Port)
			assert.Equal(t, tt.email, identity.From)
			assert.False(t, identity.UsesDefaultSender)
			assert.Empty(t, identity.ReplyTo)
		})
	}
}
