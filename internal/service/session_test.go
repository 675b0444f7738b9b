package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary/tribute-ui-api/internal/adapters/tokenstore"
	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	mockauth "github.com/tributary/tribute-ui-api/internal/mocks/auth"
)

type sessionFixture struct {
	identity *mockauth.FakeIdentity
	tokens   *tokenstore.Memory
	roles    *mockauth.StaticRoleMapper
	bus      *Bus
	svc      *SessionService
}

// startSession builds a session service and runs its loop for the test's
// lifetime. mutate runs before the loop starts, for seeding stored tokens.
func startSession(t *testing.T, mutate func(f *sessionFixture)) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		identity: mockauth.NewFakeIdentity(),
		tokens:   tokenstore.NewMemory(),
		roles:    &mockauth.StaticRoleMapper{Roles: map[string]domainauth.Role{}},
		bus:      NewBus(),
	}
	if mutate != nil {
		mutate(f)
	}

	svc, err := NewSessionService(SessionServiceOptions{
		Identity: f.identity,
		Tokens:   f.tokens,
		Roles:    f.roles,
		Bus:      f.bus,
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	f.svc = svc

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("session loop did not stop")
		}
	})

	require.NoError(t, svc.WaitReady(ctx))
	return f
}

func seedToken(t *testing.T, tokens *tokenstore.Memory, tok domainauth.Token) {
	t.Helper()
	require.NoError(t, tokens.Save(context.Background(), tok))
}

func TestNewSessionService_Validation(t *testing.T) {
	_, err := NewSessionService(SessionServiceOptions{})
	assert.Error(t, err)
}

func TestSessionService_StartsSignedOutWithoutToken(t *testing.T) {
	f := startSession(t, nil)

	assert.Nil(t, f.svc.Current())
	assert.False(t, f.svc.Loading())
	assert.Empty(t, f.svc.CurrentPrincipalID())
}

func TestSessionService_RestoresPersistedSession(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		f.roles.Roles = map[string]domainauth.Role{"fake-principal-1": domainauth.RolePremium}
		seedToken(t, f.tokens, domainauth.Token{
			AccessToken:  "stored-access",
			RefreshToken: "stored-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		})
	})

	rec := f.svc.Current()
	require.NotNil(t, rec)
	assert.Equal(t, "fake-principal-1", rec.Principal.ID)
	assert.Equal(t, domainauth.RolePremium, rec.Role)
	assert.False(t, rec.ResolvedAt.IsZero())
}

func TestSessionService_RejectedStoredTokenSettlesSignedOut(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		f.identity.CurrentPrincipalFunc = func(context.Context, domainauth.Token) (domainauth.Principal, error) {
			return domainauth.Principal{}, apperrors.Permission("revoked")
		}
		seedToken(t, f.tokens, domainauth.Token{
			AccessToken: "stored-access",
			ExpiresAt:   time.Now().Add(time.Hour),
		})
	})

	assert.Nil(t, f.svc.Current())

	// The dead token was cleared from persistence.
	_, err := f.tokens.Load(context.Background())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_ExpiredStoredTokenRefreshes(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		seedToken(t, f.tokens, domainauth.Token{
			AccessToken:  "stale-access",
			RefreshToken: "stale-refresh",
			ExpiresAt:    time.Now().Add(-time.Minute),
		})
	})

	rec := f.svc.Current()
	require.NotNil(t, rec)

	// The refreshed token replaced the stale one in persistence.
	stored, err := f.tokens.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "stale-access", stored.AccessToken)
}

func TestSessionService_ExpiredTokenRefreshFailureSettlesSignedOut(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		f.identity.RefreshFunc = func(context.Context, domainauth.Token) (domainauth.Token, error) {
			return domainauth.Token{}, apperrors.Permission("refresh token dead")
		}
		seedToken(t, f.tokens, domainauth.Token{
			AccessToken:  "stale-access",
			RefreshToken: "stale-refresh",
			ExpiresAt:    time.Now().Add(-time.Minute),
		})
	})

	assert.Nil(t, f.svc.Current())
	_, err := f.tokens.Load(context.Background())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_SignInInstallsSession(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		f.roles.Roles = map[string]domainauth.Role{"fake-principal-1": domainauth.RoleAdmin}
	})

	require.NoError(t, f.svc.SignIn(context.Background(), "fake.person@example.com", "pw"))

	require.Eventually(t, func() bool {
		rec := f.svc.Current()
		return rec != nil && rec.Role == domainauth.RoleAdmin
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "fake-principal-1", f.svc.CurrentPrincipalID())
	assert.NotEmpty(t, f.svc.CurrentToken().AccessToken)

	// Token was persisted for the next run.
	_, err := f.tokens.Load(context.Background())
	assert.NoError(t, err)
}

func TestSessionService_SignInFailureSurfacesError(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		f.identity.SignInFunc = func(context.Context, string, string) (domainauth.Principal, domainauth.Token, error) {
			return domainauth.Principal{}, domainauth.Token{}, apperrors.Permission("bad credentials")
		}
	})

	err := f.svc.SignIn(context.Background(), "x@example.com", "wrong")
	assert.True(t, apperrors.IsPermission(err))
	assert.Nil(t, f.svc.Current())
}

func TestSessionService_SignOutClearsEverything(t *testing.T) {
	f := startSession(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.SignIn(ctx, "fake.person@example.com", "pw"))
	require.Eventually(t, func() bool { return f.svc.Current() != nil }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.SignOut(ctx))

	require.Eventually(t, func() bool { return f.svc.Current() == nil }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, f.svc.CurrentToken().AccessToken)
	assert.Len(t, f.identity.SignOutCalls(), 1)

	_, err := f.tokens.Load(ctx)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_SignOutWinsOverPendingResolution(t *testing.T) {
	// A sign-out arriving while the previous principal's role resolution is
	// still in flight must leave the session cleared once everything
	// settles; the stale resolution may never reinstall the principal.
	f := startSession(t, func(f *sessionFixture) {
		f.roles.Delay = 200 * time.Millisecond
	})
	ctx := context.Background()

	require.NoError(t, f.svc.SignIn(ctx, "fake.person@example.com", "pw"))
	require.NoError(t, f.svc.SignOut(ctx))

	// Wait past the resolution delay so a stale commit would have landed.
	time.Sleep(500 * time.Millisecond)
	assert.Nil(t, f.svc.Current(), "stale resolution must not resurrect the session")
}

func TestSessionService_PrincipalUpdatedReResolvesRole(t *testing.T) {
	f := startSession(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.SignIn(ctx, "fake.person@example.com", "pw"))
	require.Eventually(t, func() bool {
		rec := f.svc.Current()
		return rec != nil && rec.Role == domainauth.RoleStandard
	}, 2*time.Second, 10*time.Millisecond)

	// An external role change lands, then the watcher's bare event arrives.
	f.roles.Roles = map[string]domainauth.Role{"fake-principal-1": domainauth.RolePremium}
	f.bus.Publish(domainauth.Event{Kind: domainauth.EventPrincipalUpdated})

	require.Eventually(t, func() bool {
		rec := f.svc.Current()
		return rec != nil && rec.Role == domainauth.RolePremium
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionService_PrincipalUpdatedWhileSignedOutIgnored(t *testing.T) {
	f := startSession(t, nil)

	f.bus.Publish(domainauth.Event{Kind: domainauth.EventPrincipalUpdated})

	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, f.svc.Current())
}

func TestSessionService_RefreshRotatesTokenAndReResolves(t *testing.T) {
	f := startSession(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.SignIn(ctx, "fake.person@example.com", "pw"))
	require.Eventually(t, func() bool { return f.svc.Current() != nil }, 2*time.Second, 10*time.Millisecond)
	before := f.svc.CurrentToken()

	require.NoError(t, f.svc.Refresh(ctx))

	after := f.svc.CurrentToken()
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
}

func TestSessionService_RefreshWithoutSession(t *testing.T) {
	f := startSession(t, nil)
	err := f.svc.Refresh(context.Background())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_UpdateMetadataRebuildsSession(t *testing.T) {
	f := startSession(t, nil)
	ctx := context.Background()

	require.NoError(t, f.svc.SignIn(ctx, "fake.person@example.com", "pw"))
	require.Eventually(t, func() bool { return f.svc.Current() != nil }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.UpdateMetadata(ctx, map[string]any{"display_name": "Renamed"}))

	require.Eventually(t, func() bool {
		rec := f.svc.Current()
		return rec != nil && rec.Principal.Metadata["display_name"] == "Renamed"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionService_UpdateMetadataWithoutSession(t *testing.T) {
	f := startSession(t, nil)
	err := f.svc.UpdateMetadata(context.Background(), map[string]any{"k": "v"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionService_AdoptInstallsExternalToken(t *testing.T) {
	f := startSession(t, nil)

	require.NoError(t, f.svc.Adopt(t.Context(), domainauth.Token{
		AccessToken: "cookie-access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	require.Eventually(t, func() bool {
		return f.svc.Current() != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "cookie-access", f.svc.CurrentToken().AccessToken)

	stored, err := f.tokens.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "cookie-access", stored.AccessToken)
}

func TestSessionService_AdoptRefreshesExpiredToken(t *testing.T) {
	f := startSession(t, nil)

	require.NoError(t, f.svc.Adopt(t.Context(), domainauth.Token{
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}))

	require.Eventually(t, func() bool {
		return f.svc.Current() != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, "stale-access", f.svc.CurrentToken().AccessToken)
}

func TestSessionService_AdoptRejectsDishonoredToken(t *testing.T) {
	f := startSession(t, func(f *sessionFixture) {
		f.identity.CurrentPrincipalFunc = func(context.Context, domainauth.Token) (domainauth.Principal, error) {
			return domainauth.Principal{}, apperrors.Permission("Token revoked")
		}
	})

	err := f.svc.Adopt(t.Context(), domainauth.Token{
		AccessToken: "revoked-access",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsPermission(err))
	assert.Nil(t, f.svc.Current())
}

func TestSessionService_AdoptRequiresToken(t *testing.T) {
	f := startSession(t, nil)
	assert.True(t, apperrors.IsValidation(f.svc.Adopt(t.Context(), domainauth.Token{})))
}

func TestSessionService_SendPasswordReset(t *testing.T) {
	f := startSession(t, nil)

	require.NoError(t, f.svc.SendPasswordReset(context.Background(), "person@example.com"))
	assert.Equal(t, []string{"person@example.com"}, f.identity.ResetEmails())
}
