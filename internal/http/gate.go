package httpx

import (
	"context"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
)

// GateState is the page-mount gate's state machine. Every evaluation
// starts pending and settles in exactly one of the other states.
type GateState string

const (
	GatePending               GateState = "pending"
	GateAllowed               GateState = "allowed"
	GateDeniedUnauthenticated GateState = "denied-unauthenticated"
	GateDeniedWrongRole       GateState = "denied-wrong-role"
)

// GateDecision is the outcome of evaluating one route. RedirectTo is set
// only for denials that have a canonical destination; a denial with an
// empty RedirectTo falls through to public content.
type GateDecision struct {
	State      GateState `json:"state"`
	RedirectTo string    `json:"redirect_to,omitempty"`
}

// SessionSource is the read surface the gate evaluates against.
type SessionSource interface {
	Current() *domainauth.SessionRecord
	Loading() bool
	WaitReady(ctx context.Context) error
}

// Gate is the page-mount authorization layer. It is one of two
// independent enforcement layers over the same policy table; the request
// interception middleware is the other, and neither trusts the other's
// verdict.
type Gate struct {
	sessions SessionSource
	policies []RoutePolicy
}

// NewGate constructs a Gate over the given policy table.
func NewGate(sessions SessionSource, policies []RoutePolicy) *Gate {
	return &Gate{sessions: sessions, policies: policies}
}

// Evaluate decides whether the current session may mount the route at
// path. It waits for the initial session restore; if the context expires
// first the decision stays pending and no protected content may render.
func (g *Gate) Evaluate(ctx context.Context, path string) GateDecision {
	if err := g.sessions.WaitReady(ctx); err != nil {
		return GateDecision{State: GatePending}
	}

	policy, protected := PolicyFor(g.policies, path)
	if !protected {
		return GateDecision{State: GateAllowed}
	}

	rec := g.sessions.Current()
	if rec == nil {
		return GateDecision{State: GateDeniedUnauthenticated, RedirectTo: SignInRoute}
	}

	if policy.Permits(rec.Role) {
		return GateDecision{State: GateAllowed}
	}
	return GateDecision{State: GateDeniedWrongRole, RedirectTo: LandingRoute(rec.Role)}
}
