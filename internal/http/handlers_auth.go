package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// SessionOperations is the slice of the session service the auth handlers
// consume.
type SessionOperations interface {
	SessionSource
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, in ports.SignUpInput) error
	SignOut(ctx context.Context) error
	Refresh(ctx context.Context) error
	CurrentToken() domainauth.Token
	Adopt(ctx context.Context, tok domainauth.Token) error
	UpdateMetadata(ctx context.Context, md map[string]any) error
	SendPasswordReset(ctx context.Context, email string) error
}

// AuthHandlers provides HTTP handlers for session operations.
type AuthHandlers struct {
	Svc    SessionOperations
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		WriteAppError(w, apperrors.ValidationField("email", "Email and password are required"))
		return
	}

	if err := h.Svc.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.logger().WarnContext(r.Context(), "sign-in failed", slog.Any("error", err))
		WriteAppError(w, err)
		return
	}
	writeSessionCookie(w, h.Svc.CurrentToken())
	w.WriteHeader(http.StatusNoContent)
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		WriteAppError(w, apperrors.ValidationField("email", "Email and password are required"))
		return
	}

	err := h.Svc.SignUp(r.Context(), ports.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Metadata: req.Metadata,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	writeSessionCookie(w, h.Svc.CurrentToken())
	w.WriteHeader(http.StatusNoContent)
}

// SignOut handles POST /api/auth/signout. Always clears the local session,
// so the only failure mode is a request that never reached us.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.SignOut(r.Context()); err != nil {
		WriteAppError(w, err)
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Refresh(r.Context()); err != nil {
		WriteAppError(w, err)
		return
	}
	writeSessionCookie(w, h.Svc.CurrentToken())
	w.WriteHeader(http.StatusNoContent)
}

type resetRequest struct {
	Email string `json:"email"`
}

// PasswordReset handles POST /api/auth/reset. The response is the same
// whether or not the address has an account.
func (h *AuthHandlers) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		WriteAppError(w, apperrors.ValidationField("email", "Email is required"))
		return
	}

	if err := h.Svc.SendPasswordReset(r.Context(), req.Email); err != nil {
		h.logger().WarnContext(r.Context(), "password reset request failed", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusAccepted)
}

type metadataRequest struct {
	Data map[string]any `json:"data"`
}

// UpdateMetadata handles PUT /api/profile/metadata for the signed-in
// principal.
func (h *AuthHandlers) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Data) == 0 {
		WriteAppError(w, apperrors.ValidationField("data", "Metadata is required"))
		return
	}

	if err := h.Svc.UpdateMetadata(r.Context(), req.Data); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionResponse is the snapshot returned to page code on mount.
type sessionResponse struct {
	Loading      bool                      `json:"loading"`
	Session      *domainauth.SessionRecord `json:"session,omitempty"`
	LandingRoute string                    `json:"landing_route,omitempty"`
}

// Session handles GET /api/session. It never blocks on the initial
// restore; callers poll or use the gate endpoint when they need to wait.
// A signed-out server with a session cookie on the request adopts the
// cookie token first, so the browser copy survives a lost server session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{Loading: h.Svc.Loading()}
	if !resp.Loading {
		if h.Svc.Current() == nil {
			if tok, ok := readSessionCookie(r); ok {
				if err := h.Svc.Adopt(r.Context(), tok); err != nil {
					h.logger().InfoContext(r.Context(), "cookie token rejected", slog.Any("error", err))
					clearSessionCookie(w)
				}
			}
		}
		if rec := h.Svc.Current(); rec != nil {
			resp.Session = rec
			resp.LandingRoute = LandingRoute(rec.Role)
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}
