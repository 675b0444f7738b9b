// Package ports defines interfaces (hexagonal ports) for identity and
// authorization behavior. Implementations live in internal/adapters and
// internal/data; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
)

// SignUpInput carries inputs for creating a new account with the identity provider.
type SignUpInput struct {
	Email    string
	Password string
	Metadata map[string]any
}

// IdentityClient talks to the hosted identity provider. All operations are
// individually fallible remote calls; the provider owns timeout policy.
type IdentityClient interface {
	// SignIn performs the password grant and returns the principal plus the issued token.
	SignIn(ctx context.Context, email, password string) (domainauth.Principal, domainauth.Token, error)

	// SignUp registers a new account and returns the principal plus the issued token.
	SignUp(ctx context.Context, in SignUpInput) (domainauth.Principal, domainauth.Token, error)

	// SignOut revokes the token with the provider. The caller clears local state regardless.
	SignOut(ctx context.Context, tok domainauth.Token) error

	// CurrentPrincipal inspects a token and returns the principal it belongs to.
	// Used for the one initial lookup on startup and for token-refresh events.
	CurrentPrincipal(ctx context.Context, tok domainauth.Token) (domainauth.Principal, error)

	// Refresh exchanges the refresh token for a fresh access token.
	Refresh(ctx context.Context, tok domainauth.Token) (domainauth.Token, error)

	// UpdateMetadata writes opaque profile metadata for the token's principal.
	UpdateMetadata(ctx context.Context, tok domainauth.Token, md map[string]any) (domainauth.Principal, error)

	// SendPasswordReset asks the provider to mail a reset link. Fire and forget.
	SendPasswordReset(ctx context.Context, email string) error
}

// EventSource delivers identity-change notifications in emission order.
// Subscribe returns a receive channel and a cancel function; the channel is
// closed after cancel.
type EventSource interface {
	Subscribe() (<-chan domainauth.Event, func())
}

// EventSink accepts identity-change notifications for fan-out to subscribers.
type EventSink interface {
	Publish(evt domainauth.Event)
}

// TokenStore persists the serialized session token on one storage surface.
type TokenStore interface {
	// Surface names the storage surface for diagnostics ("redis", "memory").
	Surface() string
	Save(ctx context.Context, tok domainauth.Token) error
	// Load returns the held token. A missing token is reported via
	// apperrors.IsNotFound, not a zero token.
	Load(ctx context.Context) (domainauth.Token, error)
	Clear(ctx context.Context) error
}

// RoleMapper resolves a principal id to an authorization role. The
// implementation never returns an error to its caller; worst case it
// returns the conservative default role.
type RoleMapper interface {
	Resolve(ctx context.Context, principalID string) domainauth.Role
}
