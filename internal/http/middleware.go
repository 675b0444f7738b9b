package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// InterceptorOptions configures the request interception layer.
type InterceptorOptions struct {
	Sessions SessionSource
	Policies []RoutePolicy
	// Roles and Procedures back the direct remote re-check on
	// administrator prefixes. At least one must be set.
	Roles      ports.RoleStore
	Procedures ports.Procedures
	Logger     *slog.Logger
}

// Interceptor enforces the route policy table on every request. It is the
// second enforcement layer next to the page-mount gate; for administrator
// routes it re-checks the role directly against the remote store instead
// of trusting the derived session record.
type Interceptor struct {
	sessions SessionSource
	policies []RoutePolicy
	roles    ports.RoleStore
	procs    ports.Procedures
	logger   *slog.Logger
}

// NewInterceptor validates dependencies and constructs an Interceptor.
func NewInterceptor(opts InterceptorOptions) (*Interceptor, error) {
	if opts.Sessions == nil {
		return nil, errors.New("sessions source is required")
	}
	if opts.Roles == nil && opts.Procedures == nil {
		return nil, errors.New("a role store or procedures client is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	policies := opts.Policies
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Interceptor{
		sessions: opts.Sessions,
		policies: policies,
		roles:    opts.Roles,
		procs:    opts.Procedures,
		logger:   opts.Logger,
	}, nil
}

// Middleware returns the enforcement middleware. Browser requests are
// redirected on denial and never see protected content; API requests get
// JSON error bodies.
func (i *Interceptor) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, protected := PolicyFor(i.policies, r.URL.Path)
			if !protected {
				next.ServeHTTP(w, r.WithContext(i.withSession(r.Context())))
				return
			}

			if err := i.sessions.WaitReady(r.Context()); err != nil {
				i.denyUnavailable(w, r)
				return
			}

			rec := i.sessions.Current()
			if rec == nil {
				i.denyUnauthenticated(w, r)
				return
			}

			if !policy.Permits(rec.Role) {
				i.denyWrongRole(w, r, rec.Role)
				return
			}

			if policyRequiresAdmin(policy) && !i.verifyAdmin(r.Context(), rec.Principal.ID) {
				i.denyWrongRole(w, r, rec.Role)
				return
			}

			ctx := SetSessionInContext(r.Context(), rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withSession attaches the current session to the context when one
// exists, without blocking on the initial restore.
func (i *Interceptor) withSession(ctx context.Context) context.Context {
	if i.sessions.Loading() {
		return ctx
	}
	return SetSessionInContext(ctx, i.sessions.Current())
}

// verifyAdmin checks the administrator role against the remote store. The
// derived session never substitutes for this check; any failure denies.
func (i *Interceptor) verifyAdmin(ctx context.Context, principalID string) bool {
	if i.procs != nil {
		ok, err := i.procs.IsAdministrator(ctx, principalID)
		if err == nil {
			return ok
		}
		i.logger.WarnContext(ctx, "administrator procedure check failed",
			slog.String("principal_id", principalID),
			slog.Any("error", err))
	}
	if i.roles == nil {
		return false
	}
	rec, err := i.roles.Get(ctx, principalID)
	if err != nil {
		i.logger.WarnContext(ctx, "administrator role lookup failed",
			slog.String("principal_id", principalID),
			slog.Any("error", err))
		return false
	}
	return rec.Role == domainauth.RoleAdmin
}

func policyRequiresAdmin(p RoutePolicy) bool {
	for _, role := range p.Roles {
		if role == domainauth.RoleAdmin {
			return true
		}
	}
	return false
}

func (i *Interceptor) denyUnavailable(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "session_not_ready",
			"message": "The session is still being restored.",
		})
		return
	}
	http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
}

func (i *Interceptor) denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "authentication_required",
			"message": "You must sign in to continue.",
		})
		return
	}
	http.Redirect(w, r, SignInRoute, http.StatusSeeOther)
}

func (i *Interceptor) denyWrongRole(w http.ResponseWriter, r *http.Request, role domainauth.Role) {
	if isAPIPath(r.URL.Path) {
		WriteJSON(w, http.StatusForbidden, map[string]string{
			"error":   "insufficient_permissions",
			"message": "Your role does not grant access to this resource.",
		})
		return
	}
	dest := LandingRoute(role)
	if dest == "" {
		dest = "/"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// isAPIPath distinguishes JSON API traffic from page navigation. API
// callers get structured errors; browsers get redirects.
func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
