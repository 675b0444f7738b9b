// Package auth contains domain-level types for identity, roles, and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import "time"

// Role represents an application authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	// RoleStandard is the default role for every principal; absence of a
	// role record is semantically equal to standard-user.
	RoleStandard Role = "standard-user"
	// RolePremium marks paying clients with access to the client dashboard.
	RolePremium Role = "premium-client"
	// RoleAdmin marks administrators with access to the roster view.
	RoleAdmin Role = "administrator"
)

// Recognized reports whether r is one of the known role values.
func (r Role) Recognized() bool {
	switch r {
	case RoleStandard, RolePremium, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole maps a stored string to a Role. The second return is false for
// unrecognized values; callers decide whether that means "malformed" or
// "fall through to public content".
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Recognized()
}

// Principal is the authenticated identity as known to the remote identity
// provider. The application holds a read-only, possibly-stale copy; the id
// is immutable for the principal's lifetime.
type Principal struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// RoleRecord is the durable remote mapping from a principal to its role.
// At most one record exists per principal.
type RoleRecord struct {
	PrincipalID string    `json:"principal_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionRecord is the in-memory, derived view of "current principal plus
// resolved role". It is never persisted; durability is delegated to the
// provider token held by the token stores.
type SessionRecord struct {
	Principal  Principal `json:"principal"`
	Role       Role      `json:"role"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// IsAdmin reports whether the session carries the administrator role.
func (s SessionRecord) IsAdmin() bool { return s.Role == RoleAdmin }

// Token is the serialized session token issued by the identity provider.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Live reports whether the token has not yet expired at the given instant.
func (t Token) Live(at time.Time) bool {
	return t.AccessToken != "" && at.Before(t.ExpiresAt)
}

// EventKind enumerates the identity-change notifications emitted by the
// identity provider adapter.
type EventKind string

const (
	EventSignedIn         EventKind = "signed-in"
	EventSignedOut        EventKind = "signed-out"
	EventTokenRefreshed   EventKind = "token-refreshed"
	EventPrincipalUpdated EventKind = "principal-updated"
)

// Event is a single identity-change notification. Principal is nil for
// signed-out events and non-nil for the other kinds.
type Event struct {
	Kind      EventKind
	Principal *Principal
}
