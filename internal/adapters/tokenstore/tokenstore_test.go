package tokenstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

func liveToken(access string) domainauth.Token {
	return domainauth.Token{
		AccessToken:  access,
		RefreshToken: "refresh-" + access,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

// signedTestToken mints an HS256 JWT with the given subject and expiry.
func signedTestToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// failingStore is a TokenStore double whose operations all fail.
type failingStore struct{ err error }

func (f *failingStore) Surface() string { return "failing" }
func (f *failingStore) Save(context.Context, domainauth.Token) error {
	return f.err
}
func (f *failingStore) Load(context.Context) (domainauth.Token, error) {
	return domainauth.Token{}, f.err
}
func (f *failingStore) Clear(context.Context) error { return f.err }

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Load(ctx)
	assert.True(t, apperrors.IsNotFound(err))

	tok := liveToken("a1")
	require.NoError(t, m.Save(ctx, tok))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok, got)

	require.NoError(t, m.Clear(ctx))
	_, err = m.Load(ctx)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemory_SaveValidation(t *testing.T) {
	err := NewMemory().Save(context.Background(), domainauth.Token{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestNewFanout_RequiresStores(t *testing.T) {
	_, err := NewFanout(FanoutOptions{})
	assert.Error(t, err)
}

func TestFanout_SaveWritesAllSurfaces(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{a, b}})
	require.NoError(t, err)
	ctx := context.Background()

	tok := liveToken("a1")
	require.NoError(t, f.Save(ctx, tok))

	for _, s := range []*Memory{a, b} {
		got, loadErr := s.Load(ctx)
		require.NoError(t, loadErr)
		assert.Equal(t, tok, got)
	}
}

func TestFanout_SavePartialFailureStillSucceeds(t *testing.T) {
	healthy := NewMemory()
	broken := &failingStore{err: errors.New("surface down")}
	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{broken, healthy}})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, f.Save(ctx, liveToken("a1")))

	_, err = healthy.Load(ctx)
	assert.NoError(t, err)
}

func TestFanout_SaveAllFail(t *testing.T) {
	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{
		&failingStore{err: errors.New("down")},
	}})
	require.NoError(t, err)

	assert.Error(t, f.Save(context.Background(), liveToken("a1")))
}

func TestFanout_LoadBackfillsEarlierSurfaces(t *testing.T) {
	first, second := NewMemory(), NewMemory()
	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{first, second}})
	require.NoError(t, err)
	ctx := context.Background()

	tok := liveToken("a1")
	require.NoError(t, second.Save(ctx, tok))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok, got)

	// The preferred surface now holds the token too.
	backfilled, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok, backfilled)
}

func TestFanout_LoadSkipsFailingSurface(t *testing.T) {
	healthy := NewMemory()
	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{
		&failingStore{err: errors.New("down")},
		healthy,
	}})
	require.NoError(t, err)
	ctx := context.Background()

	tok := liveToken("a1")
	require.NoError(t, healthy.Save(ctx, tok))

	got, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok, got)
}

func TestFanout_LoadAllEmpty(t *testing.T) {
	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{NewMemory(), NewMemory()}})
	require.NoError(t, err)

	_, err = f.Load(context.Background())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFanout_ClearReportsFailure(t *testing.T) {
	healthy := NewMemory()
	ctx := context.Background()
	require.NoError(t, healthy.Save(ctx, liveToken("a1")))

	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{
		healthy,
		&failingStore{err: errors.New("down")},
	}})
	require.NoError(t, err)

	assert.Error(t, f.Clear(ctx))

	// The healthy surface was still cleared.
	_, err = healthy.Load(ctx)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFanout_Probe(t *testing.T) {
	ctx := context.Background()
	held := NewMemory()
	expired := NewMemory()

	require.NoError(t, held.Save(ctx, domainauth.Token{
		AccessToken: signedTestToken(t, "principal-1", time.Now().Add(time.Hour)),
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	require.NoError(t, expired.Save(ctx, domainauth.Token{
		AccessToken: signedTestToken(t, "principal-2", time.Now().Add(-time.Hour)),
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{held, expired, NewMemory()}})
	require.NoError(t, err)

	statuses := f.Probe(ctx)
	require.Len(t, statuses, 3)

	assert.True(t, statuses[0].Held)
	assert.True(t, statuses[0].Live)
	assert.Equal(t, "principal-1", statuses[0].Subject)

	assert.True(t, statuses[1].Held)
	assert.False(t, statuses[1].Live)
	assert.Equal(t, "principal-2", statuses[1].Subject)

	assert.False(t, statuses[2].Held)
}

func TestFanout_ProbeOpaqueToken(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, liveToken("opaque-not-a-jwt")))

	f, err := NewFanout(FanoutOptions{Stores: []ports.TokenStore{m}})
	require.NoError(t, err)

	statuses := f.Probe(ctx)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Held)
	assert.True(t, statuses[0].Live, "opaque tokens fall back to the stored expiry")
	assert.Empty(t, statuses[0].Subject)
}
