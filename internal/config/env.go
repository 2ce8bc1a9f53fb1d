package config

import (
	"fmt"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable vvreport reads.
const EnvPrefix = "VVREPORT_"

// Env holds settings read from the environment, mostly secrets that do
// not belong in the config file.
type Env struct {
	Sender               string   `env:"SENDER"`
	Recipients           []string `env:"RECIPIENTS" envSeparator:","`
	SMTPUsername         string   `env:"SMTP_USERNAME"`
	SMTPPassword         string   `env:"SMTP_PASSWORD"`
	PostmarkServerToken  string   `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string   `env:"POSTMARK_ACCOUNT_TOKEN"`
}

// LoadEnv reads VVREPORT_* variables from the process environment. When
// envFile is set, its entries are used for variables the process
// environment does not define; the process environment is not modified.
func LoadEnv(envFile string) (*Env, error) {
	environ := env.ToMap(os.Environ())

	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		maps.Copy(fromFile, environ)
		environ = fromFile
	}

	return ParseEnv(environ)
}

// ParseEnv reads VVREPORT_* variables from environ.
func ParseEnv(environ map[string]string) (*Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &e, nil
}

// Apply copies every value set in the environment onto c.
func (e *Env) Apply(c *Config) {
	setString(&c.Sender, e.Sender)
	if len(e.Recipients) > 0 {
		c.Recipients = append([]string(nil), e.Recipients...)
	}
	setString(&c.SMTP.Username, e.SMTPUsername)
	setString(&c.SMTP.Password, e.SMTPPassword)
	setString(&c.Postmark.ServerToken, e.PostmarkServerToken)
	setString(&c.Postmark.AccountToken, e.PostmarkAccountToken)
}
