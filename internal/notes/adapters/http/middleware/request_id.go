package middleware

import (
	"github.com/gofiber/fiber/v3"

	"ainotes/pkg/logger"
)

// NewRequestIDMiddleware создает промежуточное ПО, присваивающее запросу идентификатор.
// Идентификатор из заголовка X-Request-ID сохраняется, иначе генерируется новый.
func NewRequestIDMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestID := ctx.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}

		ctx.Set(HeaderRequestID, requestID)
		ctx.Locals(localsRequestContext, logger.NewRequestIDContext(ctx.Context(), requestID))

		return ctx.Next()
	}
}
