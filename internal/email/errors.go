package email

import "errors"

var (
	// ErrMissingSettings indicates the user has no email settings row.
	ErrMissingSettings = errors.New("email settings not configured")

	// ErrIncompleteCredentials indicates custom delivery was selected but
	// the sender address or app password is missing.
	ErrIncompleteCredentials = errors.New("custom delivery requires email and app password")

	// ErrDefaultUnavailable indicates default delivery was selected but
	// the platform sender is not configured.
	ErrDefaultUnavailable = errors.New("platform default sender not configured")

	// ErrSendFailed indicates the SMTP transaction failed.
	ErrSendFailed = errors.New("email send failed")
)
