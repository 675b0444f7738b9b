// Package tokenstore provides the non-durable token storage surface and
// the fan-out store that coordinates every configured surface.
package tokenstore

import (
	"context"
	"sync"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// Memory is an in-process token store. Its contents last for the lifetime
// of the run; a restart starts signed out unless a durable surface also
// holds the token.
type Memory struct {
	mu   sync.RWMutex
	tok  domainauth.Token
	held bool
}

var _ ports.TokenStore = (*Memory)(nil)

// NewMemory creates an empty in-process token store.
func NewMemory() *Memory {
	return &Memory{}
}

// Surface names this storage surface for diagnostics.
func (m *Memory) Surface() string { return "memory" }

func (m *Memory) Save(_ context.Context, tok domainauth.Token) error {
	if tok.AccessToken == "" {
		return apperrors.Validation("Access token cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = tok
	m.held = true
	return nil
}

func (m *Memory) Load(_ context.Context) (domainauth.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.held {
		return domainauth.Token{}, apperrors.NotFound("No stored session token")
	}
	return m.tok, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = domainauth.Token{}
	m.held = false
	return nil
}
