package httpx

import (
	"net/http"

	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
)

// GateHandlers exposes the page-mount gate over HTTP so page code can ask
// for a routing decision before rendering anything.
type GateHandlers struct {
	Gate *Gate
}

// Evaluate handles GET /api/gate?path=<route>. The evaluation waits for
// the initial session restore, so this endpoint is also how page code
// blocks until the session service is ready.
func (h *GateHandlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || path[0] != '/' {
		WriteAppError(w, apperrors.ValidationField("path", "A rooted route path is required"))
		return
	}

	decision := h.Gate.Evaluate(r.Context(), path)
	WriteJSON(w, http.StatusOK, decision)
}
