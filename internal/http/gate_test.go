package httpx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
)

func TestGateEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		session  *domainauth.SessionRecord
		path     string
		want     GateDecision
	}{
		{
			name: "public route is always allowed",
			path: "/memorials/abc",
			want: GateDecision{State: GateAllowed},
		},
		{
			name: "protected route without session redirects to sign-in",
			path: "/dashboard",
			want: GateDecision{State: GateDeniedUnauthenticated, RedirectTo: SignInRoute},
		},
		{
			name:    "role match is allowed",
			session: sessionFor(domainauth.RoleAdmin),
			path:    "/admin/roster",
			want:    GateDecision{State: GateAllowed},
		},
		{
			name:    "any authenticated role may enter the dashboard",
			session: sessionFor(domainauth.RoleStandard),
			path:    "/dashboard",
			want:    GateDecision{State: GateAllowed},
		},
		{
			name:    "wrong role redirects to its own landing route",
			session: sessionFor(domainauth.RoleStandard),
			path:    "/admin/roster",
			want:    GateDecision{State: GateDeniedWrongRole, RedirectTo: StandardLanding},
		},
		{
			name:    "premium client denied on admin goes to the client page",
			session: sessionFor(domainauth.RolePremium),
			path:    "/admin",
			want:    GateDecision{State: GateDeniedWrongRole, RedirectTo: ClientLanding},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &stubSessions{rec: tt.session}
			gate := NewGate(sessions, DefaultPolicies())
			assert.Equal(t, tt.want, gate.Evaluate(context.Background(), tt.path))
		})
	}
}

func TestGateEvaluateStaysPendingUntilReady(t *testing.T) {
	sessions := &stubSessions{loading: true, rec: sessionFor(domainauth.RoleAdmin)}
	gate := NewGate(sessions, DefaultPolicies())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	decision := gate.Evaluate(ctx, "/admin/roster")
	assert.Equal(t, GatePending, decision.State, "no verdict may be issued before the restore settles")
	assert.Empty(t, decision.RedirectTo)
}
