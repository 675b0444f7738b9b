package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	mockauth "github.com/tributary/tribute-ui-api/internal/mocks/auth"
)

type adminFixture struct {
	svc       *AdminService
	roles     *mockauth.MemoryRoleStore
	procs     *mockauth.FakeProcedures
	favorites *mockauth.MemoryFavoriteStore
	notifier  *mockauth.CaptureNotifier
}

// newAdminFixture builds an AdminService with a loaded two-user roster:
// an administrator (p-admin) and a standard user (p-user).
func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	f := &adminFixture{
		roles:     mockauth.NewMemoryRoleStore(),
		procs:     &mockauth.FakeProcedures{},
		favorites: mockauth.NewMemoryFavoriteStore(),
		notifier:  &mockauth.CaptureNotifier{},
	}
	f.roles.Seed("p-admin", domainauth.RoleAdmin)
	f.roles.Seed("p-user", domainauth.RoleStandard)

	source := &mockauth.FakeRosterSource{
		CombinedRows: []map[string]any{
			{
				"id": "p-admin", "email": "admin@example.com", "role": "administrator",
				"created_at": "2024-01-01T00:00:00Z", "verified": true,
			},
			{
				"id": "p-user", "email": "user@example.com", "role": "standard-user",
				"created_at": "2024-02-01T00:00:00Z", "verified": true,
			},
		},
	}
	roster := newRosterService(t, source, nil)

	svc, err := NewAdminService(AdminServiceOptions{
		Roster:     roster,
		Roles:      f.roles,
		Procedures: f.procs,
		Favorites:  f.favorites,
		Notifier:   f.notifier,
		Logger:     testLogger(),
	})
	require.NoError(t, err)
	f.svc = svc

	_, err = svc.LoadRoster(context.Background())
	require.NoError(t, err)
	return f
}

func (f *adminFixture) rosterRole(t *testing.T, principalID string) domainauth.Role {
	t.Helper()
	for _, u := range f.svc.Roster() {
		if u.ID == principalID {
			return u.Role
		}
	}
	t.Fatalf("principal %s not on roster", principalID)
	return ""
}

func (f *adminFixture) onRoster(principalID string) bool {
	for _, u := range f.svc.Roster() {
		if u.ID == principalID {
			return true
		}
	}
	return false
}

func TestAdminService_ReassignRole_ProcedureSucceeds(t *testing.T) {
	f := newAdminFixture(t)

	err := f.svc.ReassignRole(context.Background(), "p-user", domainauth.RolePremium)
	require.NoError(t, err)

	assert.Equal(t, domainauth.RolePremium, f.rosterRole(t, "p-user"))
	assert.Empty(t, f.notifier.Notices(), "a clean success is silent")
	assert.Equal(t, []string{"p-user"}, f.procs.UpdateRoleCalls())
}

func TestAdminService_ReassignRole_FallbackUpsertKeepsOptimisticState(t *testing.T) {
	f := newAdminFixture(t)
	f.procs.UpdateRoleErr = apperrors.Permission("procedure denied")

	err := f.svc.ReassignRole(context.Background(), "p-user", domainauth.RolePremium)
	require.NoError(t, err)

	assert.Equal(t, domainauth.RolePremium, f.rosterRole(t, "p-user"),
		"the optimistic state is kept when the fallback write lands")
	assert.Empty(t, f.notifier.Notices(), "no error is shown on a fallback success")
	assert.Contains(t, f.roles.UpsertCalls(), "p-user")
}

func TestAdminService_ReassignRole_BothPathsFailRollsBack(t *testing.T) {
	f := newAdminFixture(t)
	f.procs.UpdateRoleErr = apperrors.Permission("procedure denied")
	f.roles.UpsertErr = apperrors.Permission("direct write denied")

	err := f.svc.ReassignRole(context.Background(), "p-user", domainauth.RolePremium)
	require.Error(t, err)

	assert.Equal(t, domainauth.RoleStandard, f.rosterRole(t, "p-user"),
		"the roster entry reverts to its pre-mutation role")
	require.Len(t, f.notifier.Notices(), 1)
	assert.Equal(t, model.NoticeError, f.notifier.Notices()[0].Level)
}

func TestAdminService_ReassignRole_Validation(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	t.Run("unknown role", func(t *testing.T) {
		err := f.svc.ReassignRole(ctx, "p-user", "czar")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("principal not on roster", func(t *testing.T) {
		err := f.svc.ReassignRole(ctx, "ghost", domainauth.RolePremium)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("same role is a no-op", func(t *testing.T) {
		require.NoError(t, f.svc.ReassignRole(ctx, "p-user", domainauth.RoleStandard))
		assert.Empty(t, f.procs.UpdateRoleCalls())
	})
}

func TestAdminService_DeleteAccount_FullSuccess(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, err := f.favorites.Create(ctx, model.CreateFavoriteRequest{PrincipalID: "p-user", MemorialID: "m1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAccount(ctx, "p-user"))

	assert.False(t, f.onRoster("p-user"))
	assert.False(t, f.roles.Has("p-user"))
	assert.Zero(t, f.favorites.Count())
	assert.Equal(t, []string{"p-user"}, f.procs.DeleteAccountCalls())
	assert.Equal(t, []model.NoticeLevel{model.NoticeSuccess}, f.notifier.Levels())
}

func TestAdminService_DeleteAccount_FavoritesFailureIsNonFatal(t *testing.T) {
	f := newAdminFixture(t)
	f.favorites.DeleteByPrincipalErr = apperrors.Unavailable("favorites table gone")

	require.NoError(t, f.svc.DeleteAccount(context.Background(), "p-user"))

	assert.False(t, f.onRoster("p-user"), "the principal is still removed from the roster")
	assert.Equal(t, []model.NoticeLevel{model.NoticeSuccess}, f.notifier.Levels(),
		"a success notice is shown despite the favorites step failing")
}

func TestAdminService_DeleteAccount_RoleRecordFailureAborts(t *testing.T) {
	f := newAdminFixture(t)
	f.roles.DeleteErr = apperrors.Permission("delete denied")

	err := f.svc.DeleteAccount(context.Background(), "p-user")
	require.Error(t, err)

	assert.True(t, f.onRoster("p-user"), "the roster is unchanged on abort")
	assert.Empty(t, f.procs.DeleteAccountCalls(), "the removal procedure is never reached")
	assert.Equal(t, []model.NoticeLevel{model.NoticeError}, f.notifier.Levels())
}

func TestAdminService_DeleteAccount_MissingRoleRecordStillDeletes(t *testing.T) {
	// A principal with no role record is still deletable; absence is the
	// default state, not an inconsistency.
	f := newAdminFixture(t)
	require.NoError(t, f.roles.Delete(context.Background(), "p-user"))

	require.NoError(t, f.svc.DeleteAccount(context.Background(), "p-user"))
	assert.False(t, f.onRoster("p-user"))
}

func TestAdminService_DeleteAccount_ProcedureFailureIsNonFatal(t *testing.T) {
	f := newAdminFixture(t)
	f.procs.DeleteAccountErr = apperrors.Unavailable("procedure missing")

	require.NoError(t, f.svc.DeleteAccount(context.Background(), "p-user"))

	assert.False(t, f.onRoster("p-user"))
	assert.Equal(t, []model.NoticeLevel{model.NoticeSuccess}, f.notifier.Levels())
}

func TestAdminService_DeleteAccount_UnknownPrincipal(t *testing.T) {
	f := newAdminFixture(t)
	err := f.svc.DeleteAccount(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAdminService_LoadRosterFailureNotifies(t *testing.T) {
	source := &mockauth.FakeRosterSource{
		CombinedErr: errRemote, ViewErr: errRemote, LegacyErr: errRemote,
		AssignErr: errRemote, ScanErr: errRemote,
	}
	roster := newRosterService(t, source, nil)
	notifier := &mockauth.CaptureNotifier{}

	svc, err := NewAdminService(AdminServiceOptions{
		Roster:     roster,
		Roles:      mockauth.NewMemoryRoleStore(),
		Procedures: &mockauth.FakeProcedures{},
		Favorites:  mockauth.NewMemoryFavoriteStore(),
		Notifier:   notifier,
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	_, err = svc.LoadRoster(context.Background())
	require.Error(t, err)
	assert.Equal(t, []model.NoticeLevel{model.NoticeError}, notifier.Levels())
}

func TestAdminService_RosterReturnsCopy(t *testing.T) {
	f := newAdminFixture(t)

	users := f.svc.Roster()
	require.NotEmpty(t, users)
	users[0].Role = "tampered"

	assert.NotEqual(t, domainauth.Role("tampered"), f.svc.Roster()[0].Role)
}

func TestRunOptimistic(t *testing.T) {
	t.Run("commit failure rolls back", func(t *testing.T) {
		state := "before"
		err := runOptimistic(context.Background(), mutation{
			Apply:    func() { state = "after" },
			Commit:   func(context.Context) error { return apperrors.Unavailable("nope") },
			Rollback: func() { state = "before" },
		})
		require.Error(t, err)
		assert.Equal(t, "before", state)
	})

	t.Run("commit success keeps applied state", func(t *testing.T) {
		state := "before"
		err := runOptimistic(context.Background(), mutation{
			Apply:    func() { state = "after" },
			Commit:   func(context.Context) error { return nil },
			Rollback: func() { state = "before" },
		})
		require.NoError(t, err)
		assert.Equal(t, "after", state)
	})
}

// Exercise a time-sensitive field to keep the fixtures honest.
func TestAdminFixtureRosterTimestamps(t *testing.T) {
	f := newAdminFixture(t)
	for _, u := range f.svc.Roster() {
		assert.False(t, u.CreatedAt.IsZero())
		assert.True(t, u.CreatedAt.Before(time.Now()))
	}
}
