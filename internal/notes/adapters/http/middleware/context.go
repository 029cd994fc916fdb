// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"
)

// Ключи значений в Locals.
const (
	localsRequestContext = "requestContext"
	localsOwnerID        = "ownerID"
)

// HeaderRequestID - заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// RequestContext возвращает контекст запроса с идентификатором запроса.
func RequestContext(c fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(localsRequestContext).(context.Context); ok {
		return ctx
	}
	return c.Context()
}

// OwnerID возвращает идентификатор владельца, установленный NewIdentityMiddleware.
func OwnerID(c fiber.Ctx) string {
	owner, _ := c.Locals(localsOwnerID).(string)
	return owner
}
