package ports

import (
	"context"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/domain/model"
)

// RoleStore reads and writes durable role records in the remote data store.
type RoleStore interface {
	// Get returns the role record for a principal. Absence is reported via
	// apperrors.IsNotFound and is a legitimate state.
	Get(ctx context.Context, principalID string) (domainauth.RoleRecord, error)

	// Upsert writes a role record keyed on principal id, inserting or
	// replacing as needed.
	Upsert(ctx context.Context, principalID string, role domainauth.Role) (domainauth.RoleRecord, error)

	// Delete removes the role record for a principal.
	Delete(ctx context.Context, principalID string) error
}

// RosterSource exposes the ordered roster retrieval strategies against the
// remote store. Each method is a distinct remote capability that may be
// absent or denied on a given deployment; callers treat every one as
// individually fallible.
type RosterSource interface {
	// CombinedRoster invokes the combined-roster-with-real-emails procedure.
	CombinedRoster(ctx context.Context) ([]map[string]any, error)

	// ViewRoster queries the roster view.
	ViewRoster(ctx context.Context) ([]map[string]any, error)

	// LegacyEmailRoster invokes the legacy emails-included procedure.
	LegacyEmailRoster(ctx context.Context) ([]map[string]any, error)

	// RoleAssignments lists full role records for joining against a live
	// principal listing.
	RoleAssignments(ctx context.Context) ([]domainauth.RoleRecord, error)

	// RoleScan is the minimal roles-table scan: principal id and role only.
	RoleScan(ctx context.Context) ([]domainauth.RoleRecord, error)
}

// PrincipalDirectory lists live principals known to the identity provider.
type PrincipalDirectory interface {
	ListPrincipals(ctx context.Context) ([]domainauth.Principal, error)
}

// Procedures groups the privileged remote procedures consumed by name.
// Each is an opaque, individually fallible capability.
type Procedures interface {
	// UpdateRole invokes the role-update procedure.
	UpdateRole(ctx context.Context, principalID string, role domainauth.Role) error

	// AssignRole invokes the role-assignment procedure.
	AssignRole(ctx context.Context, principalID string, role domainauth.Role) error

	// DeleteAccount invokes the full-account-removal procedure.
	DeleteAccount(ctx context.Context, principalID string) error

	// IsAdministrator invokes the administrator-check procedure.
	IsAdministrator(ctx context.Context, principalID string) (bool, error)
}

// FavoriteStore persists principal-scoped favorite memorial records.
type FavoriteStore interface {
	Create(ctx context.Context, req model.CreateFavoriteRequest) (model.Favorite, error)
	ListByPrincipal(ctx context.Context, principalID string) ([]model.Favorite, error)
	Delete(ctx context.Context, id string) error
	// DeleteByPrincipal removes every favorite owned by the principal and
	// returns the number removed.
	DeleteByPrincipal(ctx context.Context, principalID string) (int64, error)
}

// Notifier surfaces human-readable notices to the user. Implementations
// must never expose raw internal error objects.
type Notifier interface {
	Notify(ctx context.Context, level model.NoticeLevel, message string)
}
