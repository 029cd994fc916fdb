// Package http содержит компоненты для HTTP сервера.
package http

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ainotes/internal/notes/adapters/http/handlers"
	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/internal/notes/metrics"
	"ainotes/internal/notes/ports/services"
)

// Dependencies содержит зависимости HTTP сервера.
type Dependencies struct {
	Notes     handlers.NoteService
	Summaries handlers.SummaryService
	Analytics handlers.AnalyticsService

	Identity        services.IdentityService
	IdentityOptions middleware.IdentityOptions
	// RateLimiter может быть nil, тогда ограничение отключено.
	RateLimiter *middleware.RateLimiter

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Health   handlers.Pinger
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, deps Dependencies) {
	notesHandler := handlers.NewNotesHandler(deps.Notes)
	insightsHandler := handlers.NewInsightsHandler(deps.Summaries, deps.Analytics)

	// Middleware для всех запросов.
	app.Use(middleware.NewRecoveryMiddleware())
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	app.Use(cors.New())

	app.Get("/healthz", handlers.Health(deps.Health))
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Use(middleware.NewIdentityMiddleware(deps.Identity, deps.IdentityOptions))
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Handler())
	}

	notesRoutes := api.Group("/notes")
	notesRoutes.Get("/", notesHandler.ListNotes)
	notesRoutes.Post("/", notesHandler.CreateNote)
	notesRoutes.Get("/:id", notesHandler.GetNote)
	notesRoutes.Put("/:id", notesHandler.UpdateNote)
	notesRoutes.Patch("/:id", notesHandler.UpdateNote)
	notesRoutes.Delete("/:id", notesHandler.DeleteNote)
	notesRoutes.Post("/:id/restore", notesHandler.RestoreNote)
	notesRoutes.Get("/:id/versions", notesHandler.GetVersions)

	aiRoutes := api.Group("/ai")
	aiRoutes.Get("/summarize/:id", insightsHandler.Summarize)
	aiRoutes.Get("/languages", insightsHandler.Languages)

	api.Get("/analytics", insightsHandler.Analytics)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"detail": "Route not found",
		})
	})
}
