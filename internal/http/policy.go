package httpx

import (
	"strings"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
)

// Well-known application routes.
const (
	SignInRoute       = "/signin"
	AdminLandingRoute = "/admin/roster"
	ClientLanding     = "/client"
	StandardLanding   = "/dashboard"
)

// RoutePolicy protects a route prefix. An empty Roles set means any
// authenticated principal may enter; a non-empty set restricts entry to
// those roles.
type RoutePolicy struct {
	Prefix string
	Roles  []domainauth.Role
}

// DefaultPolicies is the single declarative policy table. Both enforcement
// layers (request interception and the page-mount gate) consume it; a
// route absent from the table is public.
func DefaultPolicies() []RoutePolicy {
	return []RoutePolicy{
		{Prefix: "/admin", Roles: []domainauth.Role{domainauth.RoleAdmin}},
		{Prefix: "/client", Roles: []domainauth.Role{domainauth.RolePremium}},
		{Prefix: "/dashboard", Roles: nil},
		{Prefix: "/api/admin", Roles: []domainauth.Role{domainauth.RoleAdmin}},
		{Prefix: "/api/favorites", Roles: nil},
		{Prefix: "/api/profile", Roles: nil},
	}
}

// PolicyFor returns the most specific policy covering the path, longest
// prefix first.
func PolicyFor(policies []RoutePolicy, path string) (RoutePolicy, bool) {
	var best RoutePolicy
	found := false
	for _, p := range policies {
		if !matchesPrefix(path, p.Prefix) {
			continue
		}
		if !found || len(p.Prefix) > len(best.Prefix) {
			best = p
			found = true
		}
	}
	return best, found
}

// matchesPrefix matches on whole path segments so /administrator is not
// covered by the /admin policy.
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Permits reports whether the role satisfies the policy. Authentication is
// checked by the caller; this only evaluates role membership.
func (p RoutePolicy) Permits(role domainauth.Role) bool {
	if len(p.Roles) == 0 {
		return true
	}
	for _, allowed := range p.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// LandingRoute returns the canonical destination for a role. Unrecognized
// roles get no destination; the caller falls through to public content.
func LandingRoute(role domainauth.Role) string {
	switch role {
	case domainauth.RoleAdmin:
		return AdminLandingRoute
	case domainauth.RolePremium:
		return ClientLanding
	case domainauth.RoleStandard:
		return StandardLanding
	default:
		return ""
	}
}
