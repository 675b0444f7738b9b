package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Identity ports.IdentityClient
	Tokens   ports.TokenStore
	Roles    ports.RoleMapper
	// Bus carries identity-change events; the service both publishes to it
	// and consumes from it, so external producers (the role-change watcher)
	// share the same ordered stream.
	Bus *Bus

	Logger *slog.Logger
	// Clock is overridable for tests; defaults to time.Now.
	Clock func() time.Time
}

// SessionService owns the current session record: the signed-in principal
// with its resolved role, or none. It reacts to identity-change events one
// at a time in emission order. Role resolution for a principal-bearing
// event runs off the loop, and its result is committed only if no newer
// session change happened in the meantime; a sign-out always clears
// immediately.
type SessionService struct {
	identity ports.IdentityClient
	tokens   ports.TokenStore
	roles    ports.RoleMapper
	bus      *Bus
	logger   *slog.Logger
	clock    func() time.Time

	mu      sync.RWMutex
	current *domainauth.SessionRecord
	token   domainauth.Token
	// epoch increments on every session-changing event; a resolution
	// captured under an older epoch is stale and must not commit.
	epoch uint64

	ready     chan struct{}
	readyOnce sync.Once

	// resolving lets Run wait out in-flight resolutions on shutdown and
	// lets tests synchronize on settling.
	resolving sync.WaitGroup
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Identity == nil {
		return nil, errors.New("identity client is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token store is required")
	}
	if opts.Roles == nil {
		return nil, errors.New("role mapper is required")
	}
	if opts.Bus == nil {
		return nil, errors.New("event bus is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionService{
		identity: opts.Identity,
		tokens:   opts.Tokens,
		roles:    opts.Roles,
		bus:      opts.Bus,
		logger:   logger,
		clock:    clock,
		ready:    make(chan struct{}),
	}, nil
}

// Run restores any persisted session, unblocks Ready, and then consumes
// identity-change events until the context is cancelled.
func (s *SessionService) Run(ctx context.Context) error {
	events, cancel := s.bus.Subscribe()
	defer cancel()

	s.restore(ctx)
	s.markReady()

	for {
		select {
		case <-ctx.Done():
			s.resolving.Wait()
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				s.resolving.Wait()
				return nil
			}
			s.handleEvent(ctx, evt)
		}
	}
}

// restore performs the one initial lookup of a persisted token. Any
// failure settles to unauthenticated; the stored token is cleared when the
// provider no longer honors it.
func (s *SessionService) restore(ctx context.Context) {
	tok, err := s.tokens.Load(ctx)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.WarnContext(ctx, "stored token load failed, starting signed out", "error", err)
		}
		return
	}

	if !tok.Live(s.clock()) {
		refreshed, refreshErr := s.identity.Refresh(ctx, tok)
		if refreshErr != nil {
			s.logger.InfoContext(ctx, "stored token could not be refreshed, starting signed out", "error", refreshErr)
			s.clearStoredToken(ctx)
			return
		}
		tok = refreshed
		s.saveToken(ctx, tok)
	}

	principal, err := s.identity.CurrentPrincipal(ctx, tok)
	if err != nil {
		s.logger.WarnContext(ctx, "stored token rejected by provider, starting signed out", "error", err)
		s.clearStoredToken(ctx)
		return
	}

	role := s.roles.Resolve(ctx, principal.ID)
	rec := domainauth.SessionRecord{Principal: principal, Role: role, ResolvedAt: s.clock()}

	s.mu.Lock()
	s.token = tok
	s.current = &rec
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session restored", "principal_id", principal.ID, "role", string(role))
}

func (s *SessionService) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// handleEvent applies one identity-change event. Events are serialized by
// Run; only role resolution leaves the loop.
func (s *SessionService) handleEvent(ctx context.Context, evt domainauth.Event) {
	switch evt.Kind {
	case domainauth.EventSignedOut:
		s.mu.Lock()
		s.epoch++
		s.current = nil
		s.token = domainauth.Token{}
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "session cleared")

	case domainauth.EventSignedIn, domainauth.EventTokenRefreshed, domainauth.EventPrincipalUpdated:
		principal := evt.Principal
		if principal == nil {
			// Events from the role-change watcher carry no principal;
			// they concern whoever is currently signed in.
			cur := s.Current()
			if cur == nil {
				return
			}
			principal = &cur.Principal
		}
		s.beginResolve(ctx, *principal)

	default:
		s.logger.WarnContext(ctx, "unknown identity event ignored", "kind", string(evt.Kind))
	}
}

// beginResolve re-runs role resolution for the principal and replaces the
// session record unless a newer session change happens first.
func (s *SessionService) beginResolve(ctx context.Context, principal domainauth.Principal) {
	s.mu.Lock()
	s.epoch++
	captured := s.epoch
	s.mu.Unlock()

	s.resolving.Add(1)
	go func() {
		defer s.resolving.Done()

		role := s.roles.Resolve(ctx, principal.ID)
		rec := domainauth.SessionRecord{Principal: principal, Role: role, ResolvedAt: s.clock()}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != captured {
			s.logger.DebugContext(ctx, "stale role resolution discarded", "principal_id", principal.ID)
			return
		}
		s.current = &rec
	}()
}

// Current returns a copy of the session record, or nil when signed out.
func (s *SessionService) Current() *domainauth.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	rec := *s.current
	return &rec
}

// CurrentPrincipalID returns the signed-in principal id, or "".
func (s *SessionService) CurrentPrincipalID() string {
	if rec := s.Current(); rec != nil {
		return rec.Principal.ID
	}
	return ""
}

// CurrentToken returns the held token; the zero token when signed out.
func (s *SessionService) CurrentToken() domainauth.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Loading reports whether the initial session restore is still running.
func (s *SessionService) Loading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

// Ready returns a channel closed once the initial restore settles.
func (s *SessionService) Ready() <-chan struct{} { return s.ready }

// WaitReady blocks until the initial restore settles or ctx ends.
func (s *SessionService) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignIn authenticates with the provider, persists the token, and emits
// the sign-in event that installs the session record.
func (s *SessionService) SignIn(ctx context.Context, email, password string) error {
	principal, tok, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	s.adoptToken(ctx, tok)
	s.bus.Publish(domainauth.Event{Kind: domainauth.EventSignedIn, Principal: &principal})
	return nil
}

// SignUp registers a new account and signs it in.
func (s *SessionService) SignUp(ctx context.Context, in ports.SignUpInput) error {
	principal, tok, err := s.identity.SignUp(ctx, in)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	s.adoptToken(ctx, tok)
	s.bus.Publish(domainauth.Event{Kind: domainauth.EventSignedIn, Principal: &principal})
	return nil
}

// SignOut revokes the token with the provider on a best-effort basis,
// clears local persistence, and emits the sign-out event. Local state is
// cleared even when the provider call fails.
func (s *SessionService) SignOut(ctx context.Context) error {
	tok := s.CurrentToken()
	if tok.AccessToken != "" {
		if err := s.identity.SignOut(ctx, tok); err != nil {
			s.logger.WarnContext(ctx, "provider sign-out failed, clearing local session anyway", "error", err)
		}
	}

	s.clearStoredToken(ctx)
	s.bus.Publish(domainauth.Event{Kind: domainauth.EventSignedOut})
	return nil
}

// Refresh exchanges the held refresh token for a fresh pair and emits a
// token-refreshed event so the role is re-resolved.
func (s *SessionService) Refresh(ctx context.Context) error {
	tok := s.CurrentToken()
	if tok.RefreshToken == "" {
		return apperrors.NotFound("No session to refresh")
	}

	refreshed, err := s.identity.Refresh(ctx, tok)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	s.adoptToken(ctx, refreshed)

	principal, err := s.identity.CurrentPrincipal(ctx, refreshed)
	if err != nil {
		s.bus.Publish(domainauth.Event{Kind: domainauth.EventTokenRefreshed})
		return nil
	}
	s.bus.Publish(domainauth.Event{Kind: domainauth.EventTokenRefreshed, Principal: &principal})
	return nil
}

// Adopt installs a token persisted on an external surface, such as the
// browser session cookie. The token is validated with the provider
// (refreshing a dead one first) before it is persisted and the sign-in
// event is emitted; a token the provider no longer honors is rejected.
func (s *SessionService) Adopt(ctx context.Context, tok domainauth.Token) error {
	if tok.AccessToken == "" {
		return apperrors.ValidationField("token", "A token is required")
	}

	if !tok.Live(s.clock()) {
		refreshed, err := s.identity.Refresh(ctx, tok)
		if err != nil {
			return fmt.Errorf("adopt session: %w", err)
		}
		tok = refreshed
	}

	principal, err := s.identity.CurrentPrincipal(ctx, tok)
	if err != nil {
		return fmt.Errorf("adopt session: %w", err)
	}

	s.adoptToken(ctx, tok)
	s.bus.Publish(domainauth.Event{Kind: domainauth.EventSignedIn, Principal: &principal})
	return nil
}

// UpdateMetadata writes profile metadata for the signed-in principal and
// emits a principal-updated event so the session record is rebuilt.
func (s *SessionService) UpdateMetadata(ctx context.Context, md map[string]any) error {
	tok := s.CurrentToken()
	if tok.AccessToken == "" {
		return apperrors.NotFound("No session to update")
	}

	principal, err := s.identity.UpdateMetadata(ctx, tok, md)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}

	s.bus.Publish(domainauth.Event{Kind: domainauth.EventPrincipalUpdated, Principal: &principal})
	return nil
}

// SendPasswordReset asks the provider to mail a reset link.
func (s *SessionService) SendPasswordReset(ctx context.Context, email string) error {
	if err := s.identity.SendPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// adoptToken installs the token locally and persists it.
func (s *SessionService) adoptToken(ctx context.Context, tok domainauth.Token) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	s.saveToken(ctx, tok)
}

// saveToken persists best effort; the in-memory session stays valid for
// this run even if every surface fails.
func (s *SessionService) saveToken(ctx context.Context, tok domainauth.Token) {
	if err := s.tokens.Save(ctx, tok); err != nil {
		s.logger.WarnContext(ctx, "token persistence failed", "error", err)
	}
}

func (s *SessionService) clearStoredToken(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "token clear failed", "error", err)
	}
}
