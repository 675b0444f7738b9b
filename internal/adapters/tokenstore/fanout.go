package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// FanoutOptions groups dependencies for Fanout.
type FanoutOptions struct {
	// Stores in preference order; Load consults them front to back.
	Stores []ports.TokenStore
	Logger *slog.Logger
}

// Fanout coordinates every configured token storage surface. Saves and
// clears go to all surfaces; loads return the first hit and backfill the
// surfaces earlier in the preference order that missed.
type Fanout struct {
	stores []ports.TokenStore
	logger *slog.Logger
}

var _ ports.TokenStore = (*Fanout)(nil)

// NewFanout constructs a fan-out token store.
func NewFanout(opts FanoutOptions) (*Fanout, error) {
	if len(opts.Stores) == 0 {
		return nil, errors.New("tokenstore: at least one store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{stores: opts.Stores, logger: logger}, nil
}

// Surface names this storage surface for diagnostics.
func (f *Fanout) Surface() string { return "fanout" }

// Save writes to every surface. A partial failure is reported but does not
// undo the surfaces that succeeded; the token remains loadable.
func (f *Fanout) Save(ctx context.Context, tok domainauth.Token) error {
	var firstErr error
	saved := 0
	for _, s := range f.stores {
		if err := s.Save(ctx, tok); err != nil {
			f.logger.Warn("token save failed on surface", "surface", s.Surface(), "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("save on %s: %w", s.Surface(), err)
			}
			continue
		}
		saved++
	}
	if saved == 0 {
		return firstErr
	}
	return nil
}

// Load returns the token from the first surface that holds one and
// backfills earlier surfaces that missed.
func (f *Fanout) Load(ctx context.Context) (domainauth.Token, error) {
	for i, s := range f.stores {
		tok, err := s.Load(ctx)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				f.logger.Warn("token load failed on surface", "surface", s.Surface(), "error", err)
			}
			continue
		}
		for _, missed := range f.stores[:i] {
			if saveErr := missed.Save(ctx, tok); saveErr != nil {
				f.logger.Warn("token backfill failed on surface", "surface", missed.Surface(), "error", saveErr)
			}
		}
		return tok, nil
	}
	return domainauth.Token{}, apperrors.NotFound("No stored session token on any surface")
}

// Clear removes the token from every surface. Failures are collected so a
// surface left holding a token is visible to the caller.
func (f *Fanout) Clear(ctx context.Context) error {
	var firstErr error
	for _, s := range f.stores {
		if err := s.Clear(ctx); err != nil {
			f.logger.Warn("token clear failed on surface", "surface", s.Surface(), "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("clear on %s: %w", s.Surface(), err)
			}
		}
	}
	return firstErr
}

// SurfaceStatus describes one storage surface for diagnostics.
type SurfaceStatus struct {
	Surface string `json:"surface"`
	Held    bool   `json:"held"`
	// Live reports whether the held token's claims say it has not expired.
	// Claims are read without signature verification; this is diagnostic
	// information only and never an authorization input.
	Live bool `json:"live"`
	// Subject is the token's subject claim when one can be read.
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Probe reports which surfaces hold a token and whether each held token
// looks live.
func (f *Fanout) Probe(ctx context.Context) []SurfaceStatus {
	out := make([]SurfaceStatus, 0, len(f.stores))
	for _, s := range f.stores {
		st := SurfaceStatus{Surface: s.Surface()}
		tok, err := s.Load(ctx)
		switch {
		case apperrors.IsNotFound(err):
			// empty surface
		case err != nil:
			st.Error = err.Error()
		default:
			st.Held = true
			st.Live, st.Subject = peekClaims(tok)
		}
		out = append(out, st)
	}
	return out
}

// peekClaims reads expiry and subject from the access token without
// verifying the signature. Opaque (non-JWT) tokens fall back to the
// stored expiry.
func peekClaims(tok domainauth.Token) (live bool, subject string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err != nil {
		return tok.Live(time.Now()), ""
	}
	subject, _ = claims.GetSubject()
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return tok.Live(time.Now()), subject
	}
	return exp.After(time.Now()), subject
}
