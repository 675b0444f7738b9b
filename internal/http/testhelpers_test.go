package httpx

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionFor(role domainauth.Role) *domainauth.SessionRecord {
	return &domainauth.SessionRecord{
		Principal: domainauth.Principal{
			ID:    "principal-1",
			Email: "person@example.com",
		},
		Role:       role,
		ResolvedAt: time.Now(),
	}
}

// stubSessions is a hand double for the session service surface the
// handlers and middleware consume.
type stubSessions struct {
	mu      sync.Mutex
	rec     *domainauth.SessionRecord
	loading bool

	tok domainauth.Token
	// adoptRec installs this record when Adopt succeeds.
	adoptRec *domainauth.SessionRecord

	signInErr  error
	signUpErr  error
	signOutErr error
	refreshErr error
	updateErr  error
	resetErr   error
	adoptErr   error

	signInEmails []string
	signUps      []ports.SignUpInput
	signOuts     int
	refreshes    int
	metadata     []map[string]any
	resetEmails  []string
	adopted      []domainauth.Token
}

func (s *stubSessions) Current() *domainauth.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

func (s *stubSessions) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *stubSessions) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	loading := s.loading
	s.mu.Unlock()
	if loading {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *stubSessions) setSession(rec *domainauth.SessionRecord) {
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
}

func (s *stubSessions) SignIn(_ context.Context, email, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signInEmails = append(s.signInEmails, email)
	if s.signInErr != nil {
		return s.signInErr
	}
	s.tok = domainauth.Token{
		AccessToken:  "stub-access",
		RefreshToken: "stub-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	return nil
}

func (s *stubSessions) SignUp(_ context.Context, in ports.SignUpInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signUps = append(s.signUps, in)
	return s.signUpErr
}

func (s *stubSessions) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOuts++
	if s.signOutErr != nil {
		return s.signOutErr
	}
	s.rec = nil
	return nil
}

func (s *stubSessions) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.refreshErr
}

func (s *stubSessions) UpdateMetadata(_ context.Context, md map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = append(s.metadata, md)
	return s.updateErr
}

func (s *stubSessions) CurrentToken() domainauth.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

func (s *stubSessions) Adopt(_ context.Context, tok domainauth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adopted = append(s.adopted, tok)
	if s.adoptErr != nil {
		return s.adoptErr
	}
	s.tok = tok
	if s.adoptRec != nil {
		s.rec = s.adoptRec
	}
	return nil
}

func (s *stubSessions) SendPasswordReset(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetEmails = append(s.resetEmails, email)
	return s.resetErr
}
