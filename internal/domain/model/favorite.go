package model

import (
	"errors"
	"strings"
	"time"
)

// Shared validation sentinels for request types.
var (
	ErrPrincipalIDRequired = errors.New("principal_id is required")
	ErrMemorialIDRequired  = errors.New("memorial_id is required")
	ErrUnknownRole         = errors.New("unknown role")
)

// Favorite marks a memorial page a principal has saved.
type Favorite struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	MemorialID  string    `json:"memorial_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateFavoriteRequest carries a new favorite for a principal.
type CreateFavoriteRequest struct {
	PrincipalID string `json:"principal_id"`
	MemorialID  string `json:"memorial_id"`
}

// Validate checks the request fields.
func (r CreateFavoriteRequest) Validate() error {
	if strings.TrimSpace(r.PrincipalID) == "" {
		return ErrPrincipalIDRequired
	}
	if strings.TrimSpace(r.MemorialID) == "" {
		return ErrMemorialIDRequired
	}
	return nil
}
