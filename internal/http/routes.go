package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tributary/tribute-ui-api/internal/ports"
	"github.com/tributary/tribute-ui-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions  SessionOperations
	Favorites *service.FavoriteService
	Admin     *service.AdminService
	Notices   *service.NoticeCenter
	// Roles and Procedures back the remote administrator re-check in the
	// interception middleware.
	Roles      ports.RoleStore
	Procedures ports.Procedures
	// Policies overrides the default route policy table when non-nil.
	Policies []RoutePolicy
	Logger   *slog.Logger
}

// NewRouter creates and configures the HTTP router with the interception
// middleware applied over every route.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Sessions == nil {
		return nil, errors.New("session service is required")
	}
	if services.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Both enforcement layers must evaluate the same table; normalize the
	// default once so the gate never sees a nil (allow-everything) table.
	policies := services.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Sessions, Logger: services.Logger}
	registerAuthRoutes(mux, authHandlers)

	gate := NewGate(services.Sessions, policies)
	mux.Handle("GET /api/gate", http.HandlerFunc((&GateHandlers{Gate: gate}).Evaluate))

	if services.Favorites != nil {
		registerFavoriteRoutes(mux, &FavoriteHandlers{Svc: services.Favorites})
	}
	if services.Admin != nil && services.Notices != nil {
		registerAdminRoutes(mux, &AdminHandlers{Svc: services.Admin, Notices: services.Notices})
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	interceptor, err := NewInterceptor(InterceptorOptions{
		Sessions:   services.Sessions,
		Policies:   policies,
		Roles:      services.Roles,
		Procedures: services.Procedures,
		Logger:     services.Logger,
	})
	if err != nil {
		return nil, err
	}

	return interceptor.Middleware()(mux), nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("POST /api/auth/signin", http.HandlerFunc(h.SignIn))
	mux.Handle("POST /api/auth/signup", http.HandlerFunc(h.SignUp))
	mux.Handle("POST /api/auth/signout", http.HandlerFunc(h.SignOut))
	mux.Handle("POST /api/auth/refresh", http.HandlerFunc(h.Refresh))
	mux.Handle("POST /api/auth/reset", http.HandlerFunc(h.PasswordReset))
	mux.Handle("PUT /api/profile/metadata", http.HandlerFunc(h.UpdateMetadata))
	mux.Handle("GET /api/session", http.HandlerFunc(h.Session))
}

func registerFavoriteRoutes(mux *http.ServeMux, h *FavoriteHandlers) {
	mux.Handle("POST /api/favorites", http.HandlerFunc(h.Create))
	mux.Handle("GET /api/favorites", http.HandlerFunc(h.List))
	mux.Handle("DELETE /api/favorites/{id}", http.HandlerFunc(h.Delete))
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers) {
	mux.Handle("GET /api/admin/roster", http.HandlerFunc(h.Roster))
	mux.Handle("PUT /api/admin/roster/role", http.HandlerFunc(h.ReassignRole))
	mux.Handle("DELETE /api/admin/roster/{principal_id}", http.HandlerFunc(h.DeleteAccount))
	mux.Handle("GET /api/admin/notices", http.HandlerFunc(h.DrainNotices))
}
