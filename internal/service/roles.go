package service

import (
	"context"
	"log/slog"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// RoleResolverOptions groups dependencies for RoleResolver.
type RoleResolverOptions struct {
	Store  ports.RoleStore
	Logger *slog.Logger
}

// RoleResolver maps a principal id to its authorization role. Resolution
// never fails from the caller's perspective: any path that cannot produce
// a recognized stored role lands on the conservative default.
type RoleResolver struct {
	store  ports.RoleStore
	logger *slog.Logger
}

var _ ports.RoleMapper = (*RoleResolver)(nil)

// NewRoleResolver constructs a RoleResolver.
func NewRoleResolver(opts RoleResolverOptions) *RoleResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{store: opts.Store, logger: logger}
}

// Resolve returns the principal's role. A missing record is materialized
// as the default role so the next lookup is a plain read; materialization
// is best effort and its failure only logs. An unrecognized stored value
// is treated as malformed and resolves to the default without a write.
func (r *RoleResolver) Resolve(ctx context.Context, principalID string) domainauth.Role {
	if principalID == "" {
		return domainauth.RoleStandard
	}

	rec, err := r.store.Get(ctx, principalID)
	switch {
	case err == nil:
		if rec.Role.Recognized() {
			return rec.Role
		}
		r.logger.WarnContext(ctx, "stored role value unrecognized, using default",
			"principal_id", principalID, "stored", string(rec.Role))
		return domainauth.RoleStandard

	case apperrors.IsPermission(err):
		// The store denied the read; writing would be denied too.
		r.logger.WarnContext(ctx, "role lookup denied, using default",
			"principal_id", principalID, "error", err)
		return domainauth.RoleStandard

	case apperrors.IsNotFound(err):
		// First sight of this principal.

	default:
		r.logger.WarnContext(ctx, "role lookup failed, using default",
			"principal_id", principalID, "error", err)
	}

	r.materialize(ctx, principalID)
	return domainauth.RoleStandard
}

// materialize writes the default role record for a principal. One write
// per Resolve call, best effort.
func (r *RoleResolver) materialize(ctx context.Context, principalID string) {
	if _, err := r.store.Upsert(ctx, principalID, domainauth.RoleStandard); err != nil {
		r.logger.WarnContext(ctx, "default role materialization failed",
			"principal_id", principalID, "error", err)
		return
	}
	r.logger.InfoContext(ctx, "materialized default role record", "principal_id", principalID)
}
