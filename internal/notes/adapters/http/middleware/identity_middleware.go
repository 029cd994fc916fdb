package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"ainotes/internal/notes/ports/services"
	"ainotes/pkg/logger"
)

// IdentityOptions задает параметры cookie владельца.
type IdentityOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// NewIdentityMiddleware определяет владельца запроса по подписанной cookie.
// При отсутствии или повреждении cookie выдается новый владелец.
func NewIdentityMiddleware(identity services.IdentityService, opts IdentityOptions) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := RequestContext(ctx)
		log := logger.Log(requestCtx).With(zap.String("middleware", "identity"))

		if token := ctx.Cookies(opts.CookieName); token != "" {
			ownerID, err := identity.Resolve(requestCtx, token)
			if err == nil {
				ctx.Locals(localsOwnerID, ownerID)
				return ctx.Next()
			}
			log.Debug(requestCtx, "identity cookie rejected", zap.Error(err))
		}

		ownerID, token, err := identity.Issue(requestCtx)
		if err != nil {
			log.Error(requestCtx, "failed to issue identity", zap.Error(err))
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail": "Internal server error",
			})
		}

		ctx.Cookie(&fiber.Cookie{
			Name:     opts.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(opts.MaxAge.Seconds()),
			HTTPOnly: true,
			Secure:   opts.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		ctx.Locals(localsOwnerID, ownerID)
		log.Debug(requestCtx, "new owner issued", zap.String("ownerID", ownerID))

		return ctx.Next()
	}
}
