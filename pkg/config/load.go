// Package config загружает конфигурацию сервисов из переменных окружения.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ainotes/pkg/logger"
)

// EnvFileVariable задает путь к необязательному .env файлу.
const EnvFileVariable = "NOTES_ENV_FILE"

const defaultEnvFile = ".env"

const (
	msgLoadingConfiguration = "loading configuration"
	msgConfigurationLoaded  = "configuration loaded successfully"
	msgEnvFileLoaded        = "environment file loaded"

	errFailedLoadEnvFile       = "failed to load environment file"
	errFailedLoadConfiguration = "failed to load configuration"

	attrService = "service"
	attrPath    = "path"
)

// Load читает конфигурацию типа T: сначала подгружается .env (если файл существует),
// затем значения разбираются cleanenv по тегам env/env-default.
// Переменные, уже заданные в окружении, имеют приоритет над .env.
func Load[T any](ctx context.Context, serviceName string) (*T, error) {
	log := logger.Log(ctx)

	envPath := os.Getenv(EnvFileVariable)
	if envPath == "" {
		envPath = defaultEnvFile
	}

	log.Info(ctx, msgLoadingConfiguration,
		zap.String(attrService, serviceName),
		zap.String(attrPath, envPath))

	if err := godotenv.Load(envPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Error(ctx, errFailedLoadEnvFile, zap.String(attrPath, envPath), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", errFailedLoadEnvFile, err)
		}
	} else {
		log.Debug(ctx, msgEnvFileLoaded, zap.String(attrPath, envPath))
	}

	var cfg T
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Error(ctx, errFailedLoadConfiguration,
			zap.String(attrService, serviceName),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded, zap.String(attrService, serviceName))

	return &cfg, nil
}
