package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/blog-api/internal/models"
)

const refreshTokenKeyPrefix = "refresh_token:"

// TokenRepository keeps outstanding refresh tokens in Redis. A token is valid
// for refresh only while its key exists; revocation deletes the key and
// expiry is handled by the key TTL.
type TokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenRepository creates a new instance of TokenRepository. The TTL
// should match the refresh token lifetime so stale entries expire on their
// own.
func NewTokenRepository(client *redis.Client, ttl time.Duration) *TokenRepository {
	return &TokenRepository{client: client, ttl: ttl}
}

func tokenKey(token string) string {
	return refreshTokenKeyPrefix + token
}

// Create stores a refresh token record under its own key with the store TTL.
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	if err := r.client.Set(ctx, tokenKey(token.Token), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Exists reports whether the given refresh token is still outstanding.
func (r *TokenRepository) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, tokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check refresh token: %w", err)
	}
	return n > 0, nil
}

// DeleteOne revokes a single refresh token. Deleting a token that is already
// gone is not an error.
func (r *TokenRepository) DeleteOne(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
