package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type recordingTransport struct {
	msgs []*Message
	err  error
}

func (r *recordingTransport) Deliver(_ context.Context, msg *Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingTransport) Name() string { return "recording" }

func newTestNotifier(t *testing.T, transport Transport, recipients ...string) (*Notifier, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	n := New(Config{
		Sender:     "reports@example.com",
		Recipients: recipients,
		Subject:    "Nightly Check",
	}, transport, logger)
	n.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return n, &buf
}

func TestNotifier_Send(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		format    string
		wantMedia string
	}{
		{name: "html", format: "text/html", wantMedia: "text/html"},
		{name: "plain", format: "text/plain", wantMedia: "text/plain"},
		{name: "no subtype", format: "text", wantMedia: "text/plain"},
		{name: "unknown main type falls back to text", format: "application/json", wantMedia: "text/json"},
		{name: "case insensitive", format: "TEXT/HTML", wantMedia: "text/html"},
		{name: "parameters dropped", format: "text/html; charset=utf-8", wantMedia: "text/html"},
		{name: "parameters without subtype", format: "text; charset=utf-8", wantMedia: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &recordingTransport{}
			n, _ := newTestNotifier(t, transport, "a@example.com", "b@example.com")

			res := n.Send(context.Background(), "<p>hi</p>", tt.format)
			if !res.OK() {
				t.Fatalf("Send() error = %v", res.Err)
			}
			if res.Count != 2 {
				t.Errorf("Count = %d, want 2", res.Count)
			}
			if len(transport.msgs) != 1 {
				t.Fatalf("delivered %d messages, want 1", len(transport.msgs))
			}

			msg := transport.msgs[0]
			if msg.MediaType != tt.wantMedia {
				t.Errorf("MediaType = %q, want %q", msg.MediaType, tt.wantMedia)
			}
			if msg.Body != "<p>hi</p>" {
				t.Errorf("Body = %q", msg.Body)
			}
			if msg.From != "reports@example.com" || msg.Subject != "Nightly Check" {
				t.Errorf("From/Subject = %q/%q", msg.From, msg.Subject)
			}
			if strings.Join(msg.To, ",") != "a@example.com,b@example.com" {
				t.Errorf("To = %v", msg.To)
			}
		})
	}
}

func TestNotifier_SendFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	transport := &recordingTransport{err: boom}
	n, logs := newTestNotifier(t, transport, "a@example.com")

	res := n.Send(context.Background(), "body", "text/plain")
	if res.OK() {
		t.Fatal("Send() succeeded, want failure")
	}
	if res.Count != 0 {
		t.Errorf("Count = %d, want 0", res.Count)
	}
	if !errors.Is(res.Err, boom) {
		t.Errorf("Err = %v, want %v", res.Err, boom)
	}
	if !strings.Contains(logs.String(), "report delivery failed") {
		t.Errorf("failure not logged: %s", logs.String())
	}
}

func TestNotifier_NoRecipients(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	n, _ := newTestNotifier(t, transport)

	res := n.Send(context.Background(), "body", "text/plain")
	if !errors.Is(res.Err, ErrNoRecipients) {
		t.Errorf("Err = %v, want ErrNoRecipients", res.Err)
	}
	if res.Count != 0 {
		t.Errorf("Count = %d, want 0", res.Count)
	}
	if len(transport.msgs) != 0 {
		t.Error("transport called without recipients")
	}
}

func TestNotifier_RecipientsCopied(t *testing.T) {
	t.Parallel()

	recipients := []string{"a@example.com"}
	transport := &recordingTransport{}
	n, _ := newTestNotifier(t, transport, recipients...)
	recipients[0] = "changed@example.com"

	n.Send(context.Background(), "body", "text/plain")
	if got := transport.msgs[0].To[0]; got != "a@example.com" {
		t.Errorf("To[0] = %q, want a@example.com", got)
	}
}

func TestMessage_Bytes(t *testing.T) {
	t.Parallel()

	msg := &Message{
		From:      "Reports <reports@example.com>",
		To:        []string{"a@example.com", "b@example.com"},
		Subject:   "Prüfung",
		MediaType: "text/html",
		Body:      "<p>café</p>\n",
		Date:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	got := string(msg.Bytes())

	for _, want := range []string{
		"From: Reports <reports@example.com>\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: =?utf-8?q?Pr=C3=BCfung?=\r\n",
		"Date: Wed, 01 May 2024 12:00:00 +0000\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/html; charset=utf-8\r\n",
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n",
		"<p>caf=C3=A9</p>\r\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q:\n%s", want, got)
		}
	}
}

func TestMessage_BytesContentType(t *testing.T) {
	t.Parallel()

	t.Run("format parameters", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{}
		n, _ := newTestNotifier(t, transport, "a@example.com")
		if res := n.Send(context.Background(), "<p>hi</p>", "text/html; charset=utf-8"); !res.OK() {
			t.Fatalf("Send() = %+v", res)
		}

		got := string(transport.msgs[0].Bytes())
		if !strings.Contains(got, "Content-Type: text/html; charset=utf-8\r\n") {
			t.Errorf("unexpected Content-Type in:\n%s", got)
		}
	})

	t.Run("malformed media type", func(t *testing.T) {
		t.Parallel()

		msg := &Message{MediaType: "text/", Body: "hi"}
		got := string(msg.Bytes())
		if !strings.Contains(got, "Content-Type: text/plain; charset=utf-8\r\n") {
			t.Errorf("unexpected Content-Type in:\n%s", got)
		}
	})
}

func TestEnvelopeAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"reports@example.com", "reports@example.com"},
		{"Reports <reports@example.com>", "reports@example.com"},
		{"not an address", "not an address"},
	}
	for _, tt := range tests {
		if got := envelopeAddress(tt.in); got != tt.want {
			t.Errorf("envelopeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
