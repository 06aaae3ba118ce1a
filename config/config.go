package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// HTTP
	// ----------------------------
	Port       string `envconfig:"PORT" default:"8080"`
	AppBaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`

	// ----------------------------
	// Secrets
	// ----------------------------
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	TokenSecret   string `envconfig:"TOKEN_SECRET"`

	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// ----------------------------
	// Completion API
	// ----------------------------
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	// ----------------------------
	// Mail
	// ----------------------------
	SendGridAPIKey    string `envconfig:"SENDGRID_API_KEY"`
	SendGridFromEmail string `envconfig:"SENDGRID_FROM_EMAIL" default:"hello@becomeyou.app"`
	SendGridFromName  string `envconfig:"SENDGRID_FROM_NAME" default:"BecomeYou"`
	SMTPHost          string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort          int    `envconfig:"SMTP_PORT" default:"1025"`
	MailRateLimit     int    `envconfig:"MAIL_RATE_LIMIT" default:"10"`

	// ----------------------------
	// Rendering + artifacts
	// ----------------------------
	PDFRenderURL string `envconfig:"PDF_RENDER_URL" default:"http://localhost:3000/forms/chromium/convert/html"`
	BlobDir      string `envconfig:"BLOB_DIR" default:"_artifacts"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate collects every missing required key so a misconfigured
// deployment fails once, with the full list, instead of one key at a
// time.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if c.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// UseSMTP reports whether delivery should fall back to the local SMTP
// relay because no SendGrid key is configured.
func (c *Config) UseSMTP() bool {
	return c.SendGridAPIKey == ""
}
