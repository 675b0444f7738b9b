package httpx

import (
	"net/http"

	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/service"
)

// AdminHandlers provides HTTP handlers for the administrator roster view.
// The interception middleware has already verified the administrator role
// against the remote store before any of these run.
type AdminHandlers struct {
	Svc     *service.AdminService
	Notices *service.NoticeCenter
}

// Roster handles GET /api/admin/roster. It always fetches through the
// fallback chain; the cached working copy is only for optimistic updates.
func (h *AdminHandlers) Roster(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.LoadRoster(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	WriteJSON(w, http.StatusOK, users)
}

// ReassignRole handles PUT /api/admin/roster/role.
func (h *AdminHandlers) ReassignRole(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteAppError(w, apperrors.ValidationField("role", err.Error()))
		return
	}

	if err := h.Svc.ReassignRole(r.Context(), req.PrincipalID, req.Role); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.Svc.Roster())
}

// DeleteAccount handles DELETE /api/admin/roster/{principal_id}.
func (h *AdminHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	principalID := r.PathValue("principal_id")
	if principalID == "" {
		WriteAppError(w, apperrors.ValidationField("principal_id", "Principal id is required"))
		return
	}

	if err := h.Svc.DeleteAccount(r.Context(), principalID); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DrainNotices handles GET /api/admin/notices, draining the accumulated
// user-facing notices.
func (h *AdminHandlers) DrainNotices(w http.ResponseWriter, r *http.Request) {
	notices := h.Notices.Drain()
	if notices == nil {
		notices = []model.Notice{}
	}
	WriteJSON(w, http.StatusOK, notices)
}
