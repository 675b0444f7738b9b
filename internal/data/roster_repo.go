package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/tributary/tribute-ui-api/internal/data/pgxutil"
	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
)

// RosterRepo exposes the roster retrieval strategies against the remote
// store. The strategies differ in privilege and in the deployment
// generation that introduced them; on any given deployment several of
// them may be absent (undefined function or view) or denied. Callers
// iterate them in order and normalize whatever shape comes back.
type RosterRepo struct {
	DB *sql.DB
}

// NewRosterRepo creates a new RosterRepo.
func NewRosterRepo(db *sql.DB) *RosterRepo {
	return &RosterRepo{DB: db}
}

// CombinedRoster invokes the combined-roster-with-real-emails procedure,
// the richest and most privileged strategy.
func (r *RosterRepo) CombinedRoster(ctx context.Context) ([]map[string]any, error) {
	return r.queryMaps(ctx, `SELECT * FROM admin_roster_combined()`)
}

// ViewRoster queries the roster view maintained by newer deployments.
func (r *RosterRepo) ViewRoster(ctx context.Context) ([]map[string]any, error) {
	return r.queryMaps(ctx, `SELECT * FROM admin_roster_view`)
}

// LegacyEmailRoster invokes the legacy emails-included procedure kept for
// deployments that predate the roster view.
func (r *RosterRepo) LegacyEmailRoster(ctx context.Context) ([]map[string]any, error) {
	return r.queryMaps(ctx, `SELECT * FROM legacy_roster_with_emails()`)
}

// RoleAssignments lists full role records for joining against a live
// principal listing.
func (r *RosterRepo) RoleAssignments(ctx context.Context) ([]domainauth.RoleRecord, error) {
	var out []domainauth.RoleRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT principal_id, role, created_at, updated_at
			FROM user_roles
			ORDER BY created_at
		`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var rec domainauth.RoleRecord
			var role string
			if scanErr := rows.Scan(&rec.PrincipalID, &role, &rec.CreatedAt, &rec.UpdatedAt); scanErr != nil {
				return scanErr
			}
			rec.Role = domainauth.Role(role)
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// RoleScan is the minimal roles-table scan: principal id and role only.
// Last-resort strategy; no email is available at this privilege level.
func (r *RosterRepo) RoleScan(ctx context.Context) ([]domainauth.RoleRecord, error) {
	var out []domainauth.RoleRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `SELECT principal_id, role FROM user_roles`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var rec domainauth.RoleRecord
			var role string
			if scanErr := rows.Scan(&rec.PrincipalID, &role); scanErr != nil {
				return scanErr
			}
			rec.Role = domainauth.Role(role)
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListPrincipals reads the provider-owned principal listing. Requires the
// service credentials; from the anon role it fails with a permission error.
func (r *RosterRepo) ListPrincipals(ctx context.Context) ([]domainauth.Principal, error) {
	var out []domainauth.Principal
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT id, email, metadata, created_at
			FROM identity.principals
			ORDER BY created_at
		`)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var p domainauth.Principal
			if scanErr := rows.Scan(&p.ID, &p.Email, &p.Metadata, &p.CreatedAt); scanErr != nil {
				return scanErr
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// queryMaps runs a query whose column set is not known ahead of time and
// returns each row as a map keyed by column name.
func (r *RosterRepo) queryMaps(ctx context.Context, sqlText string) ([]map[string]any, error) {
	var out []map[string]any
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, sqlText)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		collected, collectErr := pgx.CollectRows(rows, pgx.RowToMap)
		if collectErr != nil {
			return collectErr
		}
		out = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
