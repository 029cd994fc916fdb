package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"ainotes/internal/notes/metrics"
)

// NewMetricsMiddleware учитывает HTTP-запросы в метриках. Метка route берется
// из шаблона маршрута, а не из фактического пути.
func NewMetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		if m == nil {
			return ctx.Next()
		}

		start := time.Now()
		m.ActiveRequests.Inc()
		defer m.ActiveRequests.Dec()

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		m.TrackRequest(ctx.Method(), ctx.Route().Path, status, time.Since(start))
		return err
	}
}
