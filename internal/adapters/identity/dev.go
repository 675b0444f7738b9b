package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// DevConfig controls the local development identity provider.
type DevConfig struct {
	// SeedEmail/SeedPassword pre-register one account so sign-in works
	// out of the box. Both empty disables seeding.
	SeedEmail    string
	SeedPassword string
	// TokenDuration defaults to 8h when zero.
	TokenDuration time.Duration
}

// DevProvider implements ports.IdentityClient entirely in memory for local
// development. It issues opaque tokens and honors sign-up, sign-out,
// refresh, and metadata updates against an in-process account table.
type DevProvider struct {
	mu       sync.Mutex
	accounts map[string]*devAccount // keyed by lowercased email
	tokens   map[string]string      // access token -> email
	refresh  map[string]string      // refresh token -> email
	duration time.Duration
}

type devAccount struct {
	principal domainauth.Principal
	password  string
}

var _ ports.IdentityClient = (*DevProvider)(nil)

// NewDevProvider constructs a dev identity provider from DevConfig.
func NewDevProvider(cfg DevConfig) (*DevProvider, error) {
	dur := cfg.TokenDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	p := &DevProvider{
		accounts: make(map[string]*devAccount),
		tokens:   make(map[string]string),
		refresh:  make(map[string]string),
		duration: dur,
	}
	if cfg.SeedEmail != "" {
		if cfg.SeedPassword == "" {
			return nil, errors.New("dev identity: seed password is required with a seed email")
		}
		p.accounts[strings.ToLower(cfg.SeedEmail)] = &devAccount{
			principal: domainauth.Principal{
				ID:        uuid.NewString(),
				Email:     strings.ToLower(cfg.SeedEmail),
				CreatedAt: time.Now(),
			},
			password: cfg.SeedPassword,
		}
	}
	return p, nil
}

// SignIn checks the password against the in-memory account table.
func (p *DevProvider) SignIn(_ context.Context, email, password string) (domainauth.Principal, domainauth.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[strings.ToLower(email)]
	if !ok || acct.password != password {
		return domainauth.Principal{}, domainauth.Token{}, apperrors.Permission("Invalid email or password")
	}
	tok, err := p.issueLocked(acct.principal.Email)
	if err != nil {
		return domainauth.Principal{}, domainauth.Token{}, err
	}
	return acct.principal, tok, nil
}

// SignUp registers an account and signs it in.
func (p *DevProvider) SignUp(_ context.Context, in ports.SignUpInput) (domainauth.Principal, domainauth.Token, error) {
	if in.Email == "" || in.Password == "" {
		return domainauth.Principal{}, domainauth.Token{}, apperrors.Validation("Email and password are required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(in.Email)
	if _, exists := p.accounts[key]; exists {
		return domainauth.Principal{}, domainauth.Token{}, apperrors.Conflict("An account with that email already exists")
	}

	acct := &devAccount{
		principal: domainauth.Principal{
			ID:        uuid.NewString(),
			Email:     key,
			Metadata:  in.Metadata,
			CreatedAt: time.Now(),
		},
		password: in.Password,
	}
	p.accounts[key] = acct

	tok, err := p.issueLocked(key)
	if err != nil {
		return domainauth.Principal{}, domainauth.Token{}, err
	}
	return acct.principal, tok, nil
}

// SignOut revokes the token pair. Unknown tokens are a no-op.
func (p *DevProvider) SignOut(_ context.Context, tok domainauth.Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tokens, tok.AccessToken)
	delete(p.refresh, tok.RefreshToken)
	return nil
}

// CurrentPrincipal resolves an access token to its principal.
func (p *DevProvider) CurrentPrincipal(_ context.Context, tok domainauth.Token) (domainauth.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.tokens[tok.AccessToken]
	if !ok {
		return domainauth.Principal{}, apperrors.Permission("Unknown or revoked token")
	}
	acct, ok := p.accounts[email]
	if !ok {
		return domainauth.Principal{}, apperrors.NotFound("Account not found")
	}
	return acct.principal, nil
}

// Refresh rotates the token pair.
func (p *DevProvider) Refresh(_ context.Context, tok domainauth.Token) (domainauth.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.refresh[tok.RefreshToken]
	if !ok {
		return domainauth.Token{}, apperrors.Permission("Unknown refresh token")
	}
	delete(p.tokens, tok.AccessToken)
	delete(p.refresh, tok.RefreshToken)
	return p.issueLocked(email)
}

// UpdateMetadata overwrites the principal's metadata.
func (p *DevProvider) UpdateMetadata(ctx context.Context, tok domainauth.Token, md map[string]any) (domainauth.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.tokens[tok.AccessToken]
	if !ok {
		return domainauth.Principal{}, apperrors.Permission("Unknown or revoked token")
	}
	acct := p.accounts[email]
	acct.principal.Metadata = md
	return acct.principal, nil
}

// SendPasswordReset is a no-op locally; the account must exist.
func (p *DevProvider) SendPasswordReset(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[strings.ToLower(email)]; !ok {
		return apperrors.NotFound("Account not found")
	}
	return nil
}

// issueLocked mints a token pair; callers hold p.mu.
func (p *DevProvider) issueLocked(email string) (domainauth.Token, error) {
	access, err := randomToken(32)
	if err != nil {
		return domainauth.Token{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := randomToken(32)
	if err != nil {
		return domainauth.Token{}, fmt.Errorf("generate refresh token: %w", err)
	}
	p.tokens[access] = email
	p.refresh[refresh] = email
	return domainauth.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(p.duration),
	}, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
