package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tributary/tribute-ui-api/internal/data/pgxutil"
	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
)

// FavoriteRepo provides remote-store operations for favorite memorial records.
type FavoriteRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewFavoriteRepo creates a new FavoriteRepo with the real time provider.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewFavoriteRepoWithTimeProvider creates a FavoriteRepo with a custom time provider.
func NewFavoriteRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *FavoriteRepo {
	return &FavoriteRepo{DB: db, timeProvider: tp}
}

// Create inserts a favorite for a principal.
func (r *FavoriteRepo) Create(ctx context.Context, req model.CreateFavoriteRequest) (model.Favorite, error) {
	if err := req.Validate(); err != nil {
		return model.Favorite{}, err
	}

	fav := model.Favorite{
		ID:          uuid.NewString(),
		PrincipalID: strings.TrimSpace(req.PrincipalID),
		MemorialID:  strings.TrimSpace(req.MemorialID),
		CreatedAt:   r.timeProvider.Now().UTC(),
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO favorites (id, principal_id, memorial_id, created_at)
			VALUES ($1, $2, $3, $4)
		`, fav.ID, fav.PrincipalID, fav.MemorialID, fav.CreatedAt)
		return execErr
	})
	if err != nil {
		return model.Favorite{}, apperrors.MapDBError(err)
	}
	return fav, nil
}

// ListByPrincipal returns all favorites owned by a principal, newest first.
func (r *FavoriteRepo) ListByPrincipal(ctx context.Context, principalID string) ([]model.Favorite, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return nil, ErrPrincipalIDRequired
	}

	var out []model.Favorite
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT id, principal_id, memorial_id, created_at
			FROM favorites
			WHERE principal_id = $1
			ORDER BY created_at DESC
		`, principalID)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var f model.Favorite
			if scanErr := rows.Scan(&f.ID, &f.PrincipalID, &f.MemorialID, &f.CreatedAt); scanErr != nil {
				return scanErr
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Delete removes a single favorite by id.
func (r *FavoriteRepo) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrFavoriteIDRequired
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return ErrFavoriteNotFound
		}
		return nil
	})
	if errors.Is(err, ErrFavoriteNotFound) {
		return apperrors.NotFound("Favorite not found")
	}
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// DeleteByPrincipal removes every favorite owned by the principal.
// Removing zero rows is success: the principal simply had none.
func (r *FavoriteRepo) DeleteByPrincipal(ctx context.Context, principalID string) (int64, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return 0, ErrPrincipalIDRequired
	}

	var removed int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `DELETE FROM favorites WHERE principal_id = $1`, principalID)
		if execErr != nil {
			return execErr
		}
		removed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return removed, nil
}
