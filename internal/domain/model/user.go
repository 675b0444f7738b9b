package model

import (
	"strings"
	"time"

	"github.com/tributary/tribute-ui-api/internal/domain/auth"
)

// User is the canonical roster row shown in the administrator view. Every
// roster retrieval strategy normalizes into this shape; downstream code
// never branches on where a row came from.
type User struct {
	ID        string         `json:"id"         validate:"required"`
	Email     string         `json:"email"      validate:"required,email"`
	CreatedAt time.Time      `json:"created_at"`
	Role      auth.Role      `json:"role"       validate:"required"`
	Verified  bool           `json:"verified"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Normalize trims identifying fields and defaults an unrecognized or
// missing role to standard-user, mirroring the resolver's default.
func (u *User) Normalize() {
	u.ID = strings.TrimSpace(u.ID)
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if !u.Role.Recognized() {
		u.Role = auth.RoleStandard
	}
}

// UpdateRoleRequest carries a role reassignment for a roster entry.
type UpdateRoleRequest struct {
	PrincipalID string    `json:"principal_id"`
	Role        auth.Role `json:"role"`
}

// Validate checks the request fields.
func (r UpdateRoleRequest) Validate() error {
	if strings.TrimSpace(r.PrincipalID) == "" {
		return ErrPrincipalIDRequired
	}
	if !r.Role.Recognized() {
		return ErrUnknownRole
	}
	return nil
}
