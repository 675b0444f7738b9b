package httpx

import (
	"net/http"

	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/service"
)

// FavoriteHandlers provides HTTP handlers for favorite memorial pages.
// The principal always comes from the session in context, never from the
// request body.
type FavoriteHandlers struct {
	Svc *service.FavoriteService
}

type createFavoriteBody struct {
	MemorialID string `json:"memorial_id"`
}

// Create handles POST /api/favorites.
func (h *FavoriteHandlers) Create(w http.ResponseWriter, r *http.Request) {
	rec, ok := SessionFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Permission("Authentication required"))
		return
	}

	var body createFavoriteBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	fav, err := h.Svc.Add(r.Context(), model.CreateFavoriteRequest{
		PrincipalID: rec.Principal.ID,
		MemorialID:  body.MemorialID,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, fav)
}

// List handles GET /api/favorites.
func (h *FavoriteHandlers) List(w http.ResponseWriter, r *http.Request) {
	rec, ok := SessionFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Permission("Authentication required"))
		return
	}

	favs, err := h.Svc.List(r.Context(), rec.Principal.ID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if favs == nil {
		favs = []model.Favorite{}
	}
	WriteJSON(w, http.StatusOK, favs)
}

// Delete handles DELETE /api/favorites/{id}.
func (h *FavoriteHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := SessionFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Permission("Authentication required"))
		return
	}

	id := r.PathValue("id")
	if id == "" {
		WriteAppError(w, apperrors.ValidationField("id", "Favorite id is required"))
		return
	}

	if err := h.Svc.Remove(r.Context(), rec.Principal.ID, id); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
