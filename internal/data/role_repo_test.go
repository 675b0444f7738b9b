package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/testutil"
)

func TestRoleRepo_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewRoleRepo(db)
	_, err := repo.Get(context.Background(), "no-such-principal")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "absence must map to not-found, got %v", err)
}

func TestRoleRepo_UpsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewRoleRepo(db)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, "p-1", domainauth.RolePremium)
	require.NoError(t, err)
	assert.Equal(t, "p-1", created.PrincipalID)
	assert.Equal(t, domainauth.RolePremium, created.Role)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, 5*time.Second)

	got, err := repo.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, created.PrincipalID, got.PrincipalID)
	assert.Equal(t, created.Role, got.Role)
}

func TestRoleRepo_UpsertReplacesOnConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewRoleRepo(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "p-2", domainauth.RoleStandard)
	require.NoError(t, err)

	updated, err := repo.Upsert(ctx, "p-2", domainauth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, updated.Role)

	got, err := repo.Get(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, got.Role)
}

func TestRoleRepo_UpsertRejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewRoleRepo(db)
	_, err := repo.Upsert(context.Background(), "p-3", domainauth.Role("overlord"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRoleRepo_DeleteMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewRoleRepo(db)
	err := repo.Delete(context.Background(), "no-such-principal")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRoleRepo_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewRoleRepo(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "p-4", domainauth.RoleStandard)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "p-4"))

	_, err = repo.Get(ctx, "p-4")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRoleRepo_EmptyPrincipalID(t *testing.T) {
	repo := NewRoleRepo(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "  ")
	assert.ErrorIs(t, err, ErrPrincipalIDRequired)

	_, err = repo.Upsert(ctx, "", domainauth.RoleStandard)
	assert.ErrorIs(t, err, ErrPrincipalIDRequired)

	assert.ErrorIs(t, repo.Delete(ctx, ""), ErrPrincipalIDRequired)
}
