package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// FavoriteServiceOptions groups dependencies for FavoriteService.
type FavoriteServiceOptions struct {
	Store  ports.FavoriteStore
	Logger *slog.Logger
}

// FavoriteService manages principal-scoped favorite memorial records.
type FavoriteService struct {
	store  ports.FavoriteStore
	logger *slog.Logger
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(opts FavoriteServiceOptions) (*FavoriteService, error) {
	if opts.Store == nil {
		return nil, errors.New("favorite store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoriteService{store: opts.Store, logger: logger}, nil
}

// Add records a favorite for the principal.
func (s *FavoriteService) Add(ctx context.Context, req model.CreateFavoriteRequest) (model.Favorite, error) {
	if err := req.Validate(); err != nil {
		return model.Favorite{}, err
	}
	fav, err := s.store.Create(ctx, req)
	if err != nil {
		return model.Favorite{}, fmt.Errorf("create favorite: %w", err)
	}
	return fav, nil
}

// List returns the principal's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, principalID string) ([]model.Favorite, error) {
	if principalID == "" {
		return nil, apperrors.Validation("Principal id is required")
	}
	favs, err := s.store.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favs, nil
}

// Remove deletes one favorite after verifying the principal owns it.
func (s *FavoriteService) Remove(ctx context.Context, principalID, favoriteID string) error {
	if principalID == "" || favoriteID == "" {
		return apperrors.Validation("Principal id and favorite id are required")
	}

	owned, err := s.store.ListByPrincipal(ctx, principalID)
	if err != nil {
		return fmt.Errorf("verify favorite ownership: %w", err)
	}
	for _, fav := range owned {
		if fav.ID == favoriteID {
			return s.store.Delete(ctx, favoriteID)
		}
	}
	return apperrors.NotFound("Favorite not found")
}
