package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultSMTPPort is used when NewSMTPTransport is given port 0.
	DefaultSMTPPort = 25

	// DefaultDialTimeout bounds a whole SMTP session unless overridden.
	DefaultDialTimeout = 30 * time.Second
)

// SMTPTransport delivers messages over an SMTP session.
type SMTPTransport struct {
	host      string
	port      int
	timeout   time.Duration
	dialer    proxy.Dialer
	socksAddr string
	helo      string
	username  string
	password  string
	startTLS  bool
	tlsConfig *tls.Config
}

// SMTPOption configures an SMTPTransport.
type SMTPOption func(*SMTPTransport)

// WithDialTimeout bounds connecting plus the SMTP conversation.
func WithDialTimeout(timeout time.Duration) SMTPOption {
	return func(t *SMTPTransport) {
		if timeout > 0 {
			t.timeout = timeout
		}
	}
}

// WithDialer sets the dialer used to reach the server.
func WithDialer(dialer proxy.Dialer) SMTPOption {
	return func(t *SMTPTransport) {
		if dialer != nil {
			t.dialer = dialer
		}
	}
}

// WithSOCKS5 routes the connection through the SOCKS5 proxy at addr.
func WithSOCKS5(addr string) SMTPOption {
	return func(t *SMTPTransport) {
		t.socksAddr = addr
	}
}

// WithHelo sets the name sent in EHLO/HELO. The net/smtp default is used
// when empty.
func WithHelo(name string) SMTPOption {
	return func(t *SMTPTransport) {
		t.helo = name
	}
}

// WithAuth enables PLAIN authentication.
func WithAuth(username, password string) SMTPOption {
	return func(t *SMTPTransport) {
		t.username = username
		t.password = password
	}
}

// WithStartTLS requires the session to be upgraded with STARTTLS. Delivery
// fails with ErrStartTLSUnsupported if the server does not offer it.
// A nil config verifies the certificate against the transport host.
func WithStartTLS(config *tls.Config) SMTPOption {
	return func(t *SMTPTransport) {
		t.startTLS = true
		t.tlsConfig = config
	}
}

// NewSMTPTransport creates a transport for host:port. Port 0 means 25.
func NewSMTPTransport(host string, port int, opts ...SMTPOption) *SMTPTransport {
	if port == 0 {
		port = DefaultSMTPPort
	}
	t := &SMTPTransport{
		host:    host,
		port:    port,
		timeout: DefaultDialTimeout,
		dialer:  proxy.Direct,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Transport.
func (t *SMTPTransport) Name() string {
	return "smtp"
}

// Address returns host:port of the server.
func (t *SMTPTransport) Address() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// Deliver implements Transport.
func (t *SMTPTransport) Deliver(ctx context.Context, msg *Message) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	dialer, err := t.proxyDialer()
	if err != nil {
		return err
	}

	conn, err := dialWithContext(ctx, dialer, "tcp", t.Address())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.Address(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting from %s: %w", t.Address(), err)
	}
	defer client.Close()

	if t.helo != "" {
		if err := client.Hello(t.helo); err != nil {
			return fmt.Errorf("smtp hello: %w", err)
		}
	}

	if t.startTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return ErrStartTLSUnsupported
		}
		if err := client.StartTLS(t.clientTLSConfig()); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if t.username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return ErrAuthUnsupported
		}
		if err := client.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(envelopeAddress(msg.From)); err != nil {
		return fmt.Errorf("smtp mail from %q: %w", msg.From, err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(envelopeAddress(rcpt)); err != nil {
			return fmt.Errorf("smtp rcpt to %q: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) proxyDialer() (proxy.Dialer, error) {
	if t.socksAddr == "" {
		return t.dialer, nil
	}
	dialer, err := proxy.SOCKS5("tcp", t.socksAddr, nil, t.dialer)
	if err != nil {
		return nil, fmt.Errorf("%w: socks5 proxy %q: %w", ErrInvalidConfig, t.socksAddr, err)
	}
	return dialer, nil
}

func (t *SMTPTransport) clientTLSConfig() *tls.Config {
	if t.tlsConfig != nil {
		return t.tlsConfig.Clone()
	}
	return &tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12}
}

// dialWithContext dials a connection respecting context cancellation.
// proxy.Dialer has no context-aware Dial, so the dial runs in a goroutine
// and a connection that arrives after cancellation is closed.
func dialWithContext(ctx context.Context, dialer proxy.Dialer, network, address string) (net.Conn, error) {
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}

	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-resultCh; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case result := <-resultCh:
		return result.conn, result.err
	}
}
