package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tributary/tribute-ui-api/internal/data/pgxutil"
	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
)

// ProcedureRepo invokes the privileged remote procedures by name. Each is
// an opaque capability owned by the hosted service; a deployment may lack
// any of them, and callers fall back accordingly.
type ProcedureRepo struct {
	DB *sql.DB
}

// NewProcedureRepo creates a new ProcedureRepo.
func NewProcedureRepo(db *sql.DB) *ProcedureRepo {
	return &ProcedureRepo{DB: db}
}

// UpdateRole invokes the role-update procedure.
func (r *ProcedureRepo) UpdateRole(ctx context.Context, principalID string, role domainauth.Role) error {
	return r.execProc(ctx, `SELECT role_update($1, $2)`, principalID, string(role))
}

// AssignRole invokes the role-assignment procedure.
func (r *ProcedureRepo) AssignRole(ctx context.Context, principalID string, role domainauth.Role) error {
	return r.execProc(ctx, `SELECT role_assign($1, $2)`, principalID, string(role))
}

// DeleteAccount invokes the full-account-removal procedure, which removes
// the principal from the identity provider itself.
func (r *ProcedureRepo) DeleteAccount(ctx context.Context, principalID string) error {
	return r.execProc(ctx, `SELECT account_delete($1)`, principalID)
}

// IsAdministrator invokes the administrator-check procedure.
func (r *ProcedureRepo) IsAdministrator(ctx context.Context, principalID string) (bool, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return false, ErrPrincipalIDRequired
	}

	var isAdmin bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT is_administrator($1)`, principalID).Scan(&isAdmin)
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return isAdmin, nil
}

func (r *ProcedureRepo) execProc(ctx context.Context, sqlText string, args ...any) error {
	if len(args) > 0 {
		if id, ok := args[0].(string); ok && strings.TrimSpace(id) == "" {
			return ErrPrincipalIDRequired
		}
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, sqlText, args...)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
