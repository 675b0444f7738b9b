// Package redis provides the durable token storage surface. A saved token
// survives process restarts and carries a TTL derived from its expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

const defaultKey = "tribute:session-token"

// TokenStore persists the session token in Redis under a single key.
type TokenStore struct {
	client redis.UniversalClient
	key    string
}

var _ ports.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a Redis-backed token store.
func NewTokenStore(client redis.UniversalClient) *TokenStore {
	return &TokenStore{client: client, key: defaultKey}
}

// NewTokenStoreWithKey creates a Redis token store under a custom key,
// letting multiple installations share one Redis.
func NewTokenStoreWithKey(client redis.UniversalClient, key string) *TokenStore {
	return &TokenStore{client: client, key: key}
}

// Surface names this storage surface for diagnostics.
func (s *TokenStore) Surface() string { return "redis" }

func (s *TokenStore) Save(ctx context.Context, tok domainauth.Token) error {
	if tok.AccessToken == "" {
		return errors.New("access token cannot be empty")
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	// Keep the record around past access-token expiry so the refresh token
	// can still be used; the provider bounds refresh-token life remotely.
	ttl := time.Until(tok.ExpiresAt) + 24*time.Hour
	if ttl <= 0 {
		return errors.New("token is expired")
	}

	return s.client.Set(ctx, s.key, data, ttl).Err()
}

func (s *TokenStore) Load(ctx context.Context) (domainauth.Token, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Token{}, apperrors.NotFound("No stored session token")
		}
		return domainauth.Token{}, fmt.Errorf("redis get: %w", err)
	}

	var tok domainauth.Token
	if unmarshalErr := json.Unmarshal([]byte(data), &tok); unmarshalErr != nil {
		// A corrupt record is unrecoverable; clear it so the next load is clean.
		if delErr := s.Clear(ctx); delErr != nil {
			return domainauth.Token{}, fmt.Errorf("clear corrupt token record: %w", delErr)
		}
		return domainauth.Token{}, apperrors.NotFound("Stored session token was unreadable")
	}

	return tok, nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
