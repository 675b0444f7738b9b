package config

import (
	"fmt"
	"strings"
	"time"
)

// IdentityMode represents the identity provider backing the application.
type IdentityMode string

const (
	// IdentityModeHosted talks to the hosted identity provider over HTTP.
	IdentityModeHosted IdentityMode = "hosted"
	// IdentityModeDev uses the in-memory provider (for development only).
	IdentityModeDev IdentityMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityMode.
func (m *IdentityMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "hosted", "dev":
		*m = IdentityMode(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentityMode: %q (valid options: hosted, dev)", v)
	}
}

// IdentityConfig groups identity provider configuration.
type IdentityConfig struct {
	// Mode determines which identity provider to use.
	Mode IdentityMode `env:"MODE" envDefault:"hosted"`

	// BaseURL is the root of the hosted provider, e.g.
	// "https://project-ref.supabase.co".
	BaseURL string `env:"BASE_URL"`

	// APIKey is the provider's publishable API key. It travels on every
	// request and doubles as the OAuth client id.
	APIKey string `env:"API_KEY"`

	// JWKSURL enables local JWT verification when set. Issuer is then
	// required; both come from the provider's project settings.
	JWKSURL string `env:"JWKS_URL"`
	Issuer  string `env:"ISSUER"`

	// Dev provider configuration (used when Mode=dev).
	Dev DevIdentityConfig `envPrefix:"DEV_"`
}

// DevIdentityConfig seeds the in-memory identity provider.
type DevIdentityConfig struct {
	SeedEmail     string        `env:"SEED_EMAIL"     envDefault:"dev@example.com"`
	SeedPassword  string        `env:"SEED_PASSWORD"  envDefault:"devpassword"`
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"8h"`
}

// Sanitize applies guardrails to identity configuration values.
func (c *IdentityConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Dev.TokenDuration <= 0 {
		c.Dev.TokenDuration = 8 * time.Hour
	}
}

// Validate checks that the selected mode has the settings it needs.
func (c *IdentityConfig) Validate() error {
	if c.Mode == IdentityModeDev {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("IDENTITY_BASE_URL is required when IDENTITY_MODE=hosted")
	}
	if c.APIKey == "" {
		return fmt.Errorf("IDENTITY_API_KEY is required when IDENTITY_MODE=hosted")
	}
	if c.JWKSURL != "" && c.Issuer == "" {
		return fmt.Errorf("IDENTITY_ISSUER is required when IDENTITY_JWKS_URL is set")
	}
	return nil
}
