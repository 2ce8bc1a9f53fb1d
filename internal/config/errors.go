package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoFormat is returned when no output format is selected.
	ErrNoFormat = errors.New("no output format specified")

	// ErrInvalidIndent is returned when the JSON indent is negative.
	ErrInvalidIndent = errors.New("invalid JSON indent: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrSkipWithoutArchive is returned when --skip-unchanged is used
	// without the archive it compares against.
	ErrSkipWithoutArchive = errors.New("--skip-unchanged requires --archive")

	// ErrNoSender is returned when sending is enabled without a sender.
	ErrNoSender = errors.New("no sender address configured")

	// ErrNoRecipients is returned when sending is enabled without recipients.
	ErrNoRecipients = errors.New("no recipients configured")

	// ErrUnknownTransport is returned for a transport other than smtp or postmark.
	ErrUnknownTransport = errors.New("unknown transport: must be smtp or postmark")

	// ErrNoSMTPHost is returned when the smtp transport has no host.
	ErrNoSMTPHost = errors.New("no SMTP host configured")

	// ErrInvalidSMTPPort is returned for a port outside 0-65535.
	ErrInvalidSMTPPort = errors.New("invalid SMTP port")

	// ErrInvalidTimeout is returned when the delivery timeout of the selected
	// transport is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrNoPostmarkToken is returned when the postmark transport has no
	// server token.
	ErrNoPostmarkToken = errors.New("no Postmark server token configured")
)
