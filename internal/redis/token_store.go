package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acosmic/acosmibot-api/internal/crypto"
	goredis "github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when no Discord access token is cached for
// a user, typically because it expired and the user must log in again.
var ErrTokenNotFound = errors.New("discord access token not found")

const tokenTTL = 7 * 24 * time.Hour

// TokenStore caches Discord OAuth access tokens per user so guild
// listings can be refreshed without re-running the consent flow. Tokens
// are sealed with the crypto service before they touch Redis.
type TokenStore struct {
	rdb    *goredis.Client
	crypto crypto.Service
}

func NewTokenStore(client *Client, cryptoSvc crypto.Service) *TokenStore {
	return &TokenStore{rdb: client.rdb, crypto: cryptoSvc}
}

func (s *TokenStore) Save(ctx context.Context, userID int64, accessToken string) error {
	sealed, err := s.crypto.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	if err := s.rdb.Set(ctx, tokenKey(userID), sealed, tokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, userID int64) (string, error) {
	sealed, err := s.rdb.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}

	token, err := s.crypto.Decrypt(sealed)
	if err != nil {
		// Decryption failures mean the key rotated; treat the cached
		// token as gone and force a fresh login.
		return "", ErrTokenNotFound
	}
	return token, nil
}

func tokenKey(userID int64) string {
	return fmt.Sprintf("discord_token:%d", userID)
}
