package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/testutil"
)

func TestProcedureRepo_AssignRoleWritesRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	procs := NewProcedureRepo(db)
	ctx := context.Background()

	require.NoError(t, procs.AssignRole(ctx, "p-proc-1", domainauth.RolePremium))

	got, err := NewRoleRepo(db).Get(ctx, "p-proc-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RolePremium, got.Role)
}

func TestProcedureRepo_IsAdministrator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	procs := NewProcedureRepo(db)
	ctx := context.Background()

	require.NoError(t, procs.AssignRole(ctx, "p-proc-admin", domainauth.RoleAdmin))

	isAdmin, err := procs.IsAdministrator(ctx, "p-proc-admin")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = procs.IsAdministrator(ctx, "p-proc-nobody")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestProcedureRepo_MissingProcedureReadsAsUnavailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	procs := NewProcedureRepo(db)
	err := procs.execProc(context.Background(), `SELECT no_such_procedure($1)`, "p-proc-2")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err), "undefined function must read as unavailable, got %v", err)
}
