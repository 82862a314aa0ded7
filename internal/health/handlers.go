package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handlers reports process liveness and the state of the backing services.
type Handlers struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

func NewHandlers(db *gorm.DB, rdb *redis.Client) *Handlers {
	return &Handlers{DB: db, Rdb: rdb}
}

// Live is a bare liveness probe.
func (h *Handlers) Live(c *fiber.Ctx) error {
	return c.SendString("ok")
}

// JSON probes the database and Redis and reports each check. Returns 503 when
// any dependency is down.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	dbStatus := "ok"
	if sqlDB, err := h.DB.DB(); err != nil {
		dbStatus = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = err.Error()
		healthy = false
	}
	checks["database"] = dbStatus

	redisStatus := "ok"
	if h.Rdb == nil {
		redisStatus = "not configured"
	} else if err := h.Rdb.Ping(ctx).Err(); err != nil {
		redisStatus = err.Error()
		healthy = false
	}
	checks["redis"] = redisStatus

	status := fiber.StatusOK
	overall := "healthy"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
