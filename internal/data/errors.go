package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrPrincipalIDRequired = errors.New("principal id is required")
	ErrFavoriteIDRequired  = errors.New("favorite id is required")
	ErrFavoriteNotFound    = errors.New("favorite not found")
)
