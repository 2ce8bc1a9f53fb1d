package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".vvreport.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .vvreport.yaml configuration file.
// Pointer fields distinguish "unset" from a zero value.
type File struct {
	Formats   []string    `yaml:"formats,omitempty"`
	OutputDir string      `yaml:"output_dir,omitempty"`
	HTML      HTMLFile    `yaml:"html,omitempty"`
	JSON      JSONFile    `yaml:"json,omitempty"`
	Notify    NotifyFile  `yaml:"notify,omitempty"`
	Archive   ArchiveFile `yaml:"archive,omitempty"`
}

// HTMLFile holds HTML formatter settings.
type HTMLFile struct {
	IDColumn *int   `yaml:"id_column,omitempty"`
	CSS      string `yaml:"css,omitempty"`
	Raw      bool   `yaml:"raw,omitempty"`
}

// JSONFile holds JSON formatter settings.
type JSONFile struct {
	Indent *int `yaml:"indent,omitempty"`
}

// NotifyFile holds delivery settings. Secrets belong in the environment.
type NotifyFile struct {
	Sender     string       `yaml:"sender,omitempty"`
	Recipients []string     `yaml:"recipients,omitempty"`
	Subject    string       `yaml:"subject,omitempty"`
	Transport  string       `yaml:"transport,omitempty"`
	SMTP       SMTPFile     `yaml:"smtp,omitempty"`
	Postmark   PostmarkFile `yaml:"postmark,omitempty"`
}

// SMTPFile holds SMTP relay settings.
type SMTPFile struct {
	Host     string        `yaml:"host,omitempty"`
	Port     int           `yaml:"port,omitempty"`
	Username string        `yaml:"username,omitempty"`
	StartTLS bool          `yaml:"starttls,omitempty"`
	SOCKS5   string        `yaml:"socks5,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// PostmarkFile holds Postmark settings other than tokens.
type PostmarkFile struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Tag     string        `yaml:"tag,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ArchiveFile holds archive settings.
type ArchiveFile struct {
	Enabled       bool   `yaml:"enabled,omitempty"`
	Dir           string `yaml:"dir,omitempty"`
	SkipUnchanged bool   `yaml:"skip_unchanged,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .vvreport.yaml in the current directory
// 3. Look for .vvreport.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply copies every value set in the file onto c.
func (cf *File) Apply(c *Config) {
	if len(cf.Formats) > 0 {
		c.Formats = append([]string(nil), cf.Formats...)
	}
	setString(&c.OutputDir, cf.OutputDir)

	if cf.HTML.IDColumn != nil {
		c.IDColumn = *cf.HTML.IDColumn
	}
	setString(&c.CSSFile, cf.HTML.CSS)
	c.RawHTML = c.RawHTML || cf.HTML.Raw

	if cf.JSON.Indent != nil {
		c.JSONIndent = *cf.JSON.Indent
	}

	n := cf.Notify
	setString(&c.Sender, n.Sender)
	if len(n.Recipients) > 0 {
		c.Recipients = append([]string(nil), n.Recipients...)
	}
	setString(&c.Subject, n.Subject)
	setString(&c.Transport, n.Transport)

	setString(&c.SMTP.Host, n.SMTP.Host)
	if n.SMTP.Port != 0 {
		c.SMTP.Port = n.SMTP.Port
	}
	setString(&c.SMTP.Username, n.SMTP.Username)
	c.SMTP.StartTLS = c.SMTP.StartTLS || n.SMTP.StartTLS
	setString(&c.SMTP.SOCKS5, n.SMTP.SOCKS5)
	if n.SMTP.Timeout != 0 {
		c.SMTP.Timeout = n.SMTP.Timeout
	}

	setString(&c.Postmark.BaseURL, n.Postmark.BaseURL)
	setString(&c.Postmark.Tag, n.Postmark.Tag)
	if n.Postmark.Timeout != 0 {
		c.Postmark.Timeout = n.Postmark.Timeout
	}

	c.Archive = c.Archive || cf.Archive.Enabled
	setString(&c.DBDir, cf.Archive.Dir)
	c.SkipUnchanged = c.SkipUnchanged || cf.Archive.SkipUnchanged
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
