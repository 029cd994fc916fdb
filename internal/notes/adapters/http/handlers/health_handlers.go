package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/pkg/logger"
)

const healthTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health обрабатывает GET /healthz.
func Health(db Pinger) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx, cancel := context.WithTimeout(middleware.RequestContext(ctx), healthTimeout)
		defer cancel()

		if db != nil {
			if err := db.Ping(requestCtx); err != nil {
				logger.Log(requestCtx).Warn(requestCtx, "health check failed", zap.Error(err))
				return send(ctx, fiber.StatusServiceUnavailable, fiber.Map{"status": "unavailable"})
			}
		}
		return send(ctx, fiber.StatusOK, fiber.Map{"status": "ok"})
	}
}
