package notify

import "errors"

var (
	// ErrNoRecipients is reported when a Notifier has no recipients.
	ErrNoRecipients = errors.New("no recipients configured")

	// ErrInvalidConfig is returned when a transport is constructed with
	// missing or malformed settings.
	ErrInvalidConfig = errors.New("invalid notifier configuration")

	// ErrAuthUnsupported is returned when credentials are configured but
	// the SMTP server does not offer AUTH.
	ErrAuthUnsupported = errors.New("smtp server does not support authentication")

	// ErrStartTLSUnsupported is returned when STARTTLS is required but the
	// SMTP server does not offer it.
	ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")
)
