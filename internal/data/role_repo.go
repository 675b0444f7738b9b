package data

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tributary/tribute-ui-api/internal/data/pgxutil"
	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
)

// RoleRepo provides remote-store operations for role records. One record
// exists per principal; the unique key is principal_id.
type RoleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRoleRepo creates a new RoleRepo with the real time provider.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewRoleRepoWithTimeProvider creates a RoleRepo with a custom time provider (useful for tests).
func NewRoleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: tp}
}

// Get returns the role record for a principal. Absence maps to a NotFound
// AppError, which callers treat as "no role yet", not a fault.
func (r *RoleRepo) Get(ctx context.Context, principalID string) (domainauth.RoleRecord, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return domainauth.RoleRecord{}, ErrPrincipalIDRequired
	}

	var rec domainauth.RoleRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var role string
		scanErr := conn.QueryRow(ctx, `
			SELECT principal_id, role, created_at, updated_at
			FROM user_roles
			WHERE principal_id = $1
		`, principalID).Scan(&rec.PrincipalID, &role, &rec.CreatedAt, &rec.UpdatedAt)
		if scanErr != nil {
			return scanErr
		}
		rec.Role = domainauth.Role(role)
		return nil
	})
	if err != nil {
		return domainauth.RoleRecord{}, apperrors.MapDBError(err)
	}
	return rec, nil
}

// Upsert inserts or replaces the role record keyed on principal_id.
func (r *RoleRepo) Upsert(ctx context.Context, principalID string, role domainauth.Role) (domainauth.RoleRecord, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return domainauth.RoleRecord{}, ErrPrincipalIDRequired
	}
	if !role.Recognized() {
		return domainauth.RoleRecord{}, apperrors.ValidationField("role", "This field has an invalid value.")
	}

	now := r.timeProvider.Now().UTC()
	var rec domainauth.RoleRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var got string
		scanErr := conn.QueryRow(ctx, `
			INSERT INTO user_roles (principal_id, role, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (principal_id)
			DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
			RETURNING principal_id, role, created_at, updated_at
		`, principalID, string(role), now).Scan(&rec.PrincipalID, &got, &rec.CreatedAt, &rec.UpdatedAt)
		if scanErr != nil {
			return scanErr
		}
		rec.Role = domainauth.Role(got)
		return nil
	})
	if err != nil {
		return domainauth.RoleRecord{}, apperrors.MapDBError(err)
	}
	return rec, nil
}

// Delete removes the role record for a principal. Deleting a missing
// record is an error: the deletion flow must know the authorization
// record is really gone.
func (r *RoleRepo) Delete(ctx context.Context, principalID string) error {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return ErrPrincipalIDRequired
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `DELETE FROM user_roles WHERE principal_id = $1`, principalID)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// TimeProvider abstracts time.Now for deterministic tests.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the wall clock.
type RealTimeProvider struct{}

// Now implements TimeProvider.
func (RealTimeProvider) Now() time.Time { return time.Now() }
