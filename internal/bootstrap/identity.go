package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/tributary/tribute-ui-api/config"
	"github.com/tributary/tribute-ui-api/internal/adapters/identity"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// BuildIdentityClient constructs the identity provider client for the
// configured mode.
//
//nolint:ireturn // callers program against the port, not a concrete client.
func BuildIdentityClient(cfg config.IdentityConfig, logger *slog.Logger) (ports.IdentityClient, error) {
	if cfg.Mode == config.IdentityModeDev {
		provider, err := identity.NewDevProvider(identity.DevConfig{
			SeedEmail:     cfg.Dev.SeedEmail,
			SeedPassword:  cfg.Dev.SeedPassword,
			TokenDuration: cfg.Dev.TokenDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev identity provider: %w", err)
		}
		logger.Warn("using in-memory identity provider; not for production",
			"seed_email", cfg.Dev.SeedEmail)
		return provider, nil
	}

	client, err := identity.NewClient(identity.ClientConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		JWKSURL: cfg.JWKSURL,
		Issuer:  cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("build identity client: %w", err)
	}
	return client, nil
}
