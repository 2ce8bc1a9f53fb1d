package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "vvreport"

	// DefaultFormat is the output format used when none is requested.
	DefaultFormat = "html"

	// DefaultJSONIndent is the JSON indentation width in spaces.
	DefaultJSONIndent = 2

	// DefaultConcurrency is the number of formats rendered in parallel.
	DefaultConcurrency = 4

	// DefaultSMTPPort is the SMTP port used when none is configured.
	DefaultSMTPPort = 25

	// DefaultSMTPTimeout bounds one SMTP delivery, connect included.
	// Without it an unreachable relay blocks the CLI indefinitely.
	DefaultSMTPTimeout = 30 * time.Second

	// DefaultPostmarkTimeout bounds one Postmark API call.
	DefaultPostmarkTimeout = 30 * time.Second

	// TransportSMTP delivers through an SMTP relay.
	TransportSMTP = "smtp"

	// TransportPostmark delivers through the Postmark API.
	TransportPostmark = "postmark"
)

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// StartTLS requires the session to be upgraded; delivery fails if the
	// relay does not offer STARTTLS.
	StartTLS bool

	// SOCKS5 is an optional "host:port" proxy for the connection.
	SOCKS5 string

	Timeout time.Duration
}

// PostmarkConfig configures the Postmark transport.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string

	// BaseURL overrides the API endpoint; empty means the public API.
	BaseURL string

	Tag string

	Timeout time.Duration
}

// Config holds all configuration options for a vvreport run.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed down explicitly.
type Config struct {
	// Formats are the output format names, e.g. "html" or "json".
	Formats []string

	// OutputDir receives one file per format. Empty means stdout.
	OutputDir string

	// Query is an optional jq expression applied to the JSON rendering.
	Query string

	// IDColumn is the HTML column whose repeated values are collapsed.
	IDColumn int

	// CSSFile replaces the built-in HTML stylesheet when set.
	CSSFile string

	// RawHTML disables HTML escaping of cell values.
	RawHTML bool

	// JSONIndent is the JSON indentation width; 0 means compact.
	JSONIndent int

	// Concurrency bounds parallel rendering of multiple formats.
	Concurrency int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file; empty means search.
	ConfigFilePath string

	// EnvFile is an optional dotenv file with secrets.
	EnvFile string

	// Send mails the first rendered format to Recipients.
	Send bool

	Sender     string
	Recipients []string
	Subject    string

	// Transport is TransportSMTP or TransportPostmark.
	Transport string

	SMTP     SMTPConfig
	Postmark PostmarkConfig

	// Archive stores every rendered document in the SQLite archive.
	Archive bool

	// DBDir is the archive directory. Defaults to the XDG data directory.
	DBDir string

	// SkipUnchanged skips sending when the archive already holds an
	// identical rendering of the same report.
	SkipUnchanged bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Formats:     []string{DefaultFormat},
		JSONIndent:  DefaultJSONIndent,
		Concurrency: DefaultConcurrency,
		Transport:   TransportSMTP,
		SMTP: SMTPConfig{
			Host:    "localhost",
			Port:    DefaultSMTPPort,
			Timeout: DefaultSMTPTimeout,
		},
		Postmark: PostmarkConfig{
			Timeout: DefaultPostmarkTimeout,
		},
		DBDir: XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for vvreport.
// On Linux: ~/.local/share/vvreport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for vvreport.
// On Linux: ~/.config/vvreport
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Formats) == 0 {
		return ErrNoFormat
	}

	if c.JSONIndent < 0 {
		return ErrInvalidIndent
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.SkipUnchanged && !c.Archive {
		return ErrSkipWithoutArchive
	}

	if !c.Send {
		return nil
	}

	if c.Sender == "" {
		return ErrNoSender
	}
	if len(c.Recipients) == 0 {
		return ErrNoRecipients
	}

	switch c.Transport {
	case TransportSMTP:
		if c.SMTP.Host == "" {
			return ErrNoSMTPHost
		}
		if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
			return ErrInvalidSMTPPort
		}
		if c.SMTP.Timeout <= 0 {
			return ErrInvalidTimeout
		}
	case TransportPostmark:
		if c.Postmark.ServerToken == "" {
			return ErrNoPostmarkToken
		}
		if c.Postmark.Timeout <= 0 {
			return ErrInvalidTimeout
		}
	default:
		return ErrUnknownTransport
	}

	return nil
}
