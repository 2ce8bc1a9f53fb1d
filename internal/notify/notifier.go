package notify

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Transport hands a message over to an outbound mail system.
type Transport interface {
	// Deliver sends msg to all of msg.To. It returns once the remote side
	// accepted the message or failed.
	Deliver(ctx context.Context, msg *Message) error

	// Name identifies the transport in logs.
	Name() string
}

// Config holds the addressing used for every message a Notifier sends.
type Config struct {
	// Sender is the From address.
	Sender string

	// Recipients are the To addresses.
	Recipients []string

	// Subject is the message subject.
	Subject string
}

// Result is the outcome of Notifier.Send.
type Result struct {
	// Count is the number of recipients the message was handed over for,
	// or zero when delivery failed. Acceptance is not checked per recipient.
	Count int

	// Err is the delivery failure, if any.
	Err error
}

// OK reports whether the transport accepted the message.
func (r Result) OK() bool {
	return r.Err == nil
}

// composer builds the message body for one main media type.
type composer func(text, subType string) *Message

// composers maps a main media type to its composer. Unknown main types fall
// back to composeText.
var composers = map[string]composer{
	"text": composeText,
}

func composeText(text, subType string) *Message {
	return &Message{MediaType: "text/" + subType, Body: text}
}

// Notifier sends rendered reports to a fixed list of recipients.
type Notifier struct {
	cfg       Config
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Notifier. A nil logger means slog.Default().
func New(cfg Config, transport Transport, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Recipients = slices.Clone(cfg.Recipients)
	return &Notifier{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
}

// Send delivers text, whose format is given as "main/sub" (for example
// "text/html"), to every configured recipient.
//
// A format without a slash is treated as "main/plain". Delivery failures
// are logged and returned in Result.Err with a Count of zero; they are
// never raised any other way.
func (n *Notifier) Send(ctx context.Context, text, format string) Result {
	mainType, subType := splitFormat(format)

	compose, ok := composers[mainType]
	if !ok {
		compose = composeText
	}
	msg := compose(text, subType)
	msg.From = n.cfg.Sender
	msg.To = slices.Clone(n.cfg.Recipients)
	msg.Subject = n.cfg.Subject
	msg.Date = n.now()

	if len(msg.To) == 0 {
		n.logger.Warn("report not sent", "reason", ErrNoRecipients.Error())
		return Result{Err: ErrNoRecipients}
	}

	n.logger.Info("delivering report",
		"transport", n.transport.Name(),
		"recipients", len(msg.To),
		"format", msg.MediaType,
	)

	if err := n.transport.Deliver(ctx, msg); err != nil {
		n.logger.Error("report delivery failed",
			"transport", n.transport.Name(),
			"error", err,
		)
		return Result{Err: err}
	}

	n.logger.Debug("report delivered", "transport", n.transport.Name(), "recipients", len(msg.To))
	return Result{Count: len(msg.To)}
}

// splitFormat splits "main/sub" into lower-cased parts; a missing or empty
// subtype becomes "plain". Parameters such as "; charset=utf-8" are dropped.
func splitFormat(format string) (string, string) {
	format, _, _ = strings.Cut(format, ";")
	mainType, subType, _ := strings.Cut(strings.ToLower(strings.TrimSpace(format)), "/")
	subType = strings.TrimSpace(subType)
	if subType == "" {
		subType = "plain"
	}
	return mainType, subType
}
