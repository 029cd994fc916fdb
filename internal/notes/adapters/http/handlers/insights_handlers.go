package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"ainotes/internal/notes/adapters/http/dto"
	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/internal/notes/app"
)

// SummaryService описывает генерацию кратких содержаний.
type SummaryService interface {
	Summarize(ctx context.Context, ownerID string, noteID int64, language string) (*app.Summary, error)
}

// AnalyticsService описывает расчет статистики заметок.
type AnalyticsService interface {
	Calculate(ctx context.Context, ownerID string, refresh bool) (*app.Analytics, error)
}

// InsightsHandler обрабатывает запросы кратких содержаний и аналитики.
type InsightsHandler struct {
	summaries SummaryService
	analytics AnalyticsService
}

// NewInsightsHandler создает обработчик.
func NewInsightsHandler(summaries SummaryService, analytics AnalyticsService) *InsightsHandler {
	return &InsightsHandler{summaries: summaries, analytics: analytics}
}

// Summarize обрабатывает GET /api/ai/summarize/:id?language=.
func (h *InsightsHandler) Summarize(ctx fiber.Ctx) error {
	noteID, ok := noteIDParam(ctx)
	if !ok {
		return respondInvalidParams(ctx)
	}

	summary, err := h.summaries.Summarize(middleware.RequestContext(ctx), middleware.OwnerID(ctx), noteID,
		ctx.Query("language", app.DefaultLanguage))
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, summary)
}

// Languages обрабатывает GET /api/ai/languages.
func (h *InsightsHandler) Languages(ctx fiber.Ctx) error {
	return send(ctx, fiber.StatusOK, dto.NewLanguagesResponse(app.Languages()))
}

// Analytics обрабатывает GET /api/analytics?refresh=.
func (h *InsightsHandler) Analytics(ctx fiber.Ctx) error {
	refresh, err := strconv.ParseBool(ctx.Query("refresh", "false"))
	if err != nil {
		return respondInvalidParams(ctx)
	}

	result, err := h.analytics.Calculate(middleware.RequestContext(ctx), middleware.OwnerID(ctx), refresh)
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, result)
}
