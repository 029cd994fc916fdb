// Package config содержит конфигурацию сервиса заметок.
package config

import (
	"context"

	"go.uber.org/zap"

	pkgconfig "ainotes/pkg/config"
	"ainotes/pkg/logger"
)

const serviceName = "notes"

// Config представляет полную конфигурацию приложения.
type Config struct {
	Postgres  PostgresConfig  `yaml:"postgres"`
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
	Identity  IdentityConfig  `yaml:"identity"`
	AI        AIConfig        `yaml:"ai"`
	Trash     TrashConfig     `yaml:"trash"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load загружает конфигурацию из переменных окружения и необязательного .env файла.
func Load(ctx context.Context) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, serviceName)
	if err != nil {
		return nil, err
	}

	logger.Log(ctx).Info(ctx, "notes configuration",
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("redis_address", cfg.Redis.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout),
		zap.String("ai_model", cfg.AI.Model),
		zap.Bool("ai_enabled", cfg.AI.Enabled()),
		zap.String("deleted_at_policy", cfg.Trash.DeletedAtPolicy),
		zap.Duration("trash_retention", cfg.Trash.Retention))

	return cfg, nil
}
