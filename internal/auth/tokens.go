package auth

import (
	"context"
	"time"

	"trustline-backend/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore issues and revokes opaque bearer tokens backed by Redis.
type TokenStore struct {
	Rdb *redis.Client
	TTL time.Duration
}

// Issue creates a fresh token bound to the actor and stores it with the TTL.
func (s *TokenStore) Issue(ctx context.Context, actor middleware.Actor) (string, error) {
	token := uuid.New().String()
	if err := middleware.StoreToken(ctx, s.Rdb, token, actor, s.TTL); err != nil {
		return "", err
	}
	return token, nil
}

// Revoke deletes the token; subsequent requests carrying it are anonymous.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.Rdb.Del(ctx, middleware.TokenRedisPrefix+token).Err()
}
