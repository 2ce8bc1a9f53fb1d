package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mrz1836/postmark"
)

// PostmarkTransport delivers messages through the Postmark API.
type PostmarkTransport struct {
	client  *postmark.Client
	tag     string
	timeout time.Duration
}

// PostmarkOption configures a PostmarkTransport.
type PostmarkOption func(*PostmarkTransport)

// WithPostmarkBaseURL overrides the API endpoint.
func WithPostmarkBaseURL(baseURL string) PostmarkOption {
	return func(t *PostmarkTransport) {
		if baseURL != "" {
			t.client.BaseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithPostmarkHTTPClient sets the HTTP client used for API calls.
func WithPostmarkHTTPClient(client *http.Client) PostmarkOption {
	return func(t *PostmarkTransport) {
		if client != nil {
			t.client.HTTPClient = client
		}
	}
}

// WithPostmarkTag tags every message sent through the transport.
func WithPostmarkTag(tag string) PostmarkOption {
	return func(t *PostmarkTransport) {
		t.tag = tag
	}
}

// WithPostmarkTimeout bounds each API call. Non-positive values are ignored.
func WithPostmarkTimeout(d time.Duration) PostmarkOption {
	return func(t *PostmarkTransport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewPostmarkTransport creates a Postmark transport. The server token is
// required; the account token may be empty.
func NewPostmarkTransport(serverToken, accountToken string, opts ...PostmarkOption) (*PostmarkTransport, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	t := &PostmarkTransport{
		client:  postmark.NewClient(serverToken, accountToken),
		timeout: DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name implements Transport.
func (t *PostmarkTransport) Name() string {
	return "postmark"
}

// Deliver implements Transport. HTML messages are sent as HtmlBody,
// everything else as TextBody.
func (t *PostmarkTransport) Deliver(ctx context.Context, msg *Message) error {
	email := postmark.Email{
		From:    msg.From,
		To:      strings.Join(msg.To, ", "),
		Subject: msg.Subject,
		Tag:     t.tag,
	}
	if msg.MediaType == "text/html" {
		email.HTMLBody = msg.Body
	} else {
		email.TextBody = msg.Body
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := t.client.SendEmail(ctx, email); err != nil {
		var apiErr postmark.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("postmark send: error %d: %w", apiErr.ErrorCode, err)
		}
		return fmt.Errorf("postmark send: %w", err)
	}
	return nil
}
