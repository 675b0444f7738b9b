package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/testutil"
)

func seedRosterFixture(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `DELETE FROM identity.principals`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO identity.principals (id, email, verified) VALUES
			('p-1', 'ada@example.com', true),
			('p-2', 'grace@example.com', false)
	`)
	require.NoError(t, err)

	roles := NewRoleRepo(db)
	_, err = roles.Upsert(ctx, "p-1", domainauth.RoleAdmin)
	require.NoError(t, err)
}

func TestRosterRepo_CombinedRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	repo := NewRosterRepo(db)
	rows, err := repo.CombinedRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "id")
	assert.Contains(t, rows[0], "email")
	assert.Contains(t, rows[0], "role")
}

func TestRosterRepo_ViewRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	repo := NewRosterRepo(db)
	rows, err := repo.ViewRoster(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRosterRepo_LegacyEmailRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	repo := NewRosterRepo(db)
	rows, err := repo.LegacyEmailRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// legacy shape uses its own column names
	assert.Contains(t, rows[0], "user_id")
	assert.Contains(t, rows[0], "user_email")
}

func TestRosterRepo_RoleScanAndAssignments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	repo := NewRosterRepo(db)
	ctx := context.Background()

	scan, err := repo.RoleScan(ctx)
	require.NoError(t, err)
	require.Len(t, scan, 1)
	assert.Equal(t, "p-1", scan[0].PrincipalID)
	assert.Equal(t, domainauth.RoleAdmin, scan[0].Role)
	assert.True(t, scan[0].CreatedAt.IsZero(), "minimal scan carries no timestamps")

	full, err := repo.RoleAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.False(t, full[0].CreatedAt.IsZero())
}

func TestRosterRepo_ListPrincipals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	repo := NewRosterRepo(db)
	principals, err := repo.ListPrincipals(context.Background())
	require.NoError(t, err)
	require.Len(t, principals, 2)
	assert.Equal(t, "ada@example.com", principals[0].Email)
}

func TestProcedureRepo_IsAdministratorWithRosterFixture(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	repo := NewProcedureRepo(db)
	ctx := context.Background()

	isAdmin, err := repo.IsAdministrator(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = repo.IsAdministrator(ctx, "p-2")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestProcedureRepo_RoleProcedures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	seedRosterFixture(t, db)

	proc := NewProcedureRepo(db)
	roles := NewRoleRepo(db)
	ctx := context.Background()

	require.NoError(t, proc.AssignRole(ctx, "p-2", domainauth.RolePremium))
	rec, err := roles.Get(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RolePremium, rec.Role)

	require.NoError(t, proc.UpdateRole(ctx, "p-2", domainauth.RoleStandard))
	rec, err = roles.Get(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleStandard, rec.Role)
}

func TestProcedureRepo_EmptyPrincipal(t *testing.T) {
	repo := NewProcedureRepo(nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.DeleteAccount(ctx, ""), ErrPrincipalIDRequired)
	_, err := repo.IsAdministrator(ctx, " ")
	assert.ErrorIs(t, err, ErrPrincipalIDRequired)
}
