// Package main реализует точку входа службы заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ainotes/internal/notes/adapters/ai"
	"ainotes/internal/notes/adapters/cache"
	httpServer "ainotes/internal/notes/adapters/http"
	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/internal/notes/adapters/postgres"
	"ainotes/internal/notes/adapters/services"
	"ainotes/internal/notes/app"
	"ainotes/internal/notes/config"
	"ainotes/internal/notes/db"
	"ainotes/internal/notes/metrics"
	portsservices "ainotes/internal/notes/ports/services"
	pkgredis "ainotes/pkg/db/redis"
	"ainotes/pkg/logger"
	"ainotes/pkg/resilience"
	"ainotes/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTES_LOGGER_MODE"
	EnvLoggerLevel = "NOTES_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDB               = "failed to initialize database"
	ErrInitRedis            = "redis unavailable, continuing without cache"
	ErrTrashPolicy          = "invalid trash configuration"
	ErrStartHTTPServer      = "failed to start HTTP server"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "note service started"
	LogServiceShutdownDone = "note service shutdown complete"
	LogClosingDB           = "closing database connections"
	LogClosingRedis        = "closing Redis connection"
	LogStoppingHTTP        = "stopping HTTP server"
	LogStoppingJanitor     = "stopping trash janitor"
	LogInitRepo            = "initializing repositories"
	LogInitCache           = "initializing cache"
	LogInitServices        = "initializing services"
	LogInitUseCases        = "initializing use cases"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogAIDisabled          = "summary provider key is not set, summaries will fail"
)

const migrationsDir = "migrations/notes"

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		if err := cfg.Trash.Validate(); err != nil {
			log.Error(ctx, ErrTrashPolicy, zap.Error(err))
			exitCode = 1
			return
		}
		deletedAtPolicy, err := cfg.Trash.GetDeletedAtPolicy()
		if err != nil {
			log.Error(ctx, ErrTrashPolicy, zap.Error(err))
			exitCode = 1
			return
		}

		database, err := db.New(ctx, &cfg.Postgres, migrationsDir)
		if err != nil {
			log.Error(ctx, ErrInitDB, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(env)),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitRepo)
		repoFactory := postgres.NewRepositoryFactory(database.Pool())
		noteRepo := repoFactory.NoteRepository()

		log.Info(ctx, LogInitCache)
		var noteCache portsservices.Cache = cache.Noop{}
		var redisCache *cache.RedisCache
		if redisClient, err := pkgredis.NewClient(ctx, cfg.Redis.ClientConfig()); err != nil {
			log.Warn(ctx, ErrInitRedis, zap.Error(err))
		} else {
			redisCache = cache.NewRedisCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL)
			noteCache = redisCache
		}

		log.Info(ctx, LogInitServices)
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		serviceMetrics := metrics.New(registry)

		identity := services.NewJWTIdentity(cfg.Identity.Secret, cfg.Identity.MaxAge)

		if !cfg.AI.Enabled() {
			log.Warn(ctx, LogAIDisabled)
		}
		summarizer := ai.NewSummarizer(ai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			Timeout:     cfg.AI.Timeout,
			Temperature: cfg.AI.Temperature,
		}, resilience.NewServiceResilience("summary-provider"))

		log.Info(ctx, LogInitUseCases)
		noteUseCase := app.NewNoteUseCase(noteRepo,
			app.WithDeletedAtPolicy(deletedAtPolicy),
			app.WithMetrics(serviceMetrics),
		)
		summaryService := app.NewSummaryService(noteUseCase, summarizer, noteCache, cfg.AI.SummaryTTL, serviceMetrics)
		analyticsService := app.NewAnalyticsService(noteUseCase, noteCache, cfg.Redis.DefaultTTL, serviceMetrics)
		noteUseCase.Subscribe(summaryService)
		noteUseCase.Subscribe(analyticsService)

		var janitor *app.TrashJanitor
		if cfg.Trash.RetentionEnabled() {
			janitor = app.NewTrashJanitor(noteUseCase, cfg.Trash.Retention, cfg.Trash.PurgeInterval)
			janitor.Start(ctx)
		}

		var rateLimiter *middleware.RateLimiter
		if cfg.RateLimit.Enabled() {
			rateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
				RPS:   cfg.RateLimit.RPS,
				Burst: cfg.RateLimit.Burst,
			})
		}

		log.Info(ctx, LogInitHTTPServer)
		fiberApp := fiber.New(fiber.Config{
			AppName:      "ainotes",
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		})

		httpServer.SetupRouter(fiberApp, httpServer.Dependencies{
			Notes:     noteUseCase,
			Summaries: summaryService,
			Analytics: analyticsService,
			Identity:  identity,
			IdentityOptions: middleware.IdentityOptions{
				CookieName: cfg.Identity.CookieName,
				MaxAge:     cfg.Identity.MaxAge,
				Secure:     cfg.Identity.Secure,
			},
			RateLimiter: rateLimiter,
			Metrics:     serviceMetrics,
			Gatherer:    registry,
			Health:      database,
		})

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := fiberApp.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		// HTTP сервер дожидается текущих запросов до закрытия хранилищ.
		shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(), shutdown.Sequence(
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				if rateLimiter != nil {
					rateLimiter.Stop()
				}
				return fiberApp.ShutdownWithContext(ctx)
			},
			shutdown.Parallel(
				func(ctx context.Context) error {
					if janitor == nil {
						return nil
					}
					log.Info(ctx, LogStoppingJanitor)
					return janitor.Stop(ctx)
				},
				func(ctx context.Context) error {
					if redisCache == nil {
						return nil
					}
					log.Info(ctx, LogClosingRedis)
					return redisCache.Close()
				},
			),
			func(ctx context.Context) error {
				log.Info(ctx, LogClosingDB)
				database.Close(ctx)
				return nil
			},
		))

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
