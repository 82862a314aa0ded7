package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"trustline-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const actorLocal = "user"

// TokenRedisPrefix is the Redis key prefix for issued bearer tokens.
const TokenRedisPrefix = "token:"

// Actor is the authenticated identity resolved from a bearer token. Every
// escrow-scoped operation receives one.
type Actor struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Authenticate resolves the Authorization bearer token against Redis and, if
// valid, stores the Actor in Locals. It never rejects by itself; RequireAuth
// does that for protected routes.
func Authenticate(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			return c.Next()
		}
		b, err := rdb.Get(context.Background(), TokenRedisPrefix+token).Bytes()
		if err != nil {
			return c.Next()
		}
		var actor Actor
		if err := json.Unmarshal(b, &actor); err != nil || actor.UserID == "" {
			return c.Next()
		}
		c.Locals(actorLocal, actor)
		c.Locals("token", token)
		return c.Next()
	}
}

// RequireAuth ensures an actor was resolved. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(actorLocal).(Actor); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetActor returns the authenticated actor from Locals.
func GetActor(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(actorLocal).(Actor)
	return actor, ok
}

// GetToken returns the raw bearer token for the current request ("" if none).
func GetToken(c *fiber.Ctx) string {
	t, _ := c.Locals("token").(string)
	return t
}

// StoreToken persists an issued token in Redis with the given TTL.
func StoreToken(ctx context.Context, rdb *redis.Client, token string, actor Actor, ttl time.Duration) error {
	b, err := json.Marshal(actor)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, TokenRedisPrefix+token, b, ttl).Err()
}
