package httpx

import (
	"context"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across
// packages.
type sessionKey struct{}

// SetSessionInContext returns a child context carrying the session record.
// A nil record returns the original context unchanged.
func SetSessionInContext(ctx context.Context, rec *domainauth.SessionRecord) context.Context {
	if rec == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, rec)
}

// SessionFromContext returns the session record from context and whether
// one is present.
func SessionFromContext(ctx context.Context) (*domainauth.SessionRecord, bool) {
	if rec, ok := ctx.Value(sessionKey{}).(*domainauth.SessionRecord); ok && rec != nil {
		return rec, true
	}
	return nil, false
}
