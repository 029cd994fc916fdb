package config

import (
	"errors"
	"fmt"
	"time"

	"ainotes/internal/notes/domain/entities"
)

// Допустимые значения NOTES_TRASH_DELETED_AT_POLICY.
const (
	PolicyKeepFirst = "keep_first"
	PolicyRefresh   = "refresh"
)

// Ошибки проверки настроек корзины.
var (
	ErrUnknownPolicy        = fmt.Errorf("unknown deleted_at policy, expected %q or %q", PolicyKeepFirst, PolicyRefresh)
	ErrInvalidPurgeInterval = errors.New("purge interval must be positive when retention is enabled")
)

// TrashConfig содержит настройки корзины.
type TrashConfig struct {
	DeletedAtPolicy string        `yaml:"deleted_at_policy" env:"NOTES_TRASH_DELETED_AT_POLICY" env-default:"keep_first"`
	Retention       time.Duration `yaml:"retention" env:"NOTES_TRASH_RETENTION" env-default:"0s"`
	PurgeInterval   time.Duration `yaml:"purge_interval" env:"NOTES_TRASH_PURGE_INTERVAL" env-default:"1h"`
}

// GetDeletedAtPolicy преобразует строковую политику в доменное значение.
func (c *TrashConfig) GetDeletedAtPolicy() (entities.DeletedAtPolicy, error) {
	switch c.DeletedAtPolicy {
	case PolicyKeepFirst, "":
		return entities.DeletedAtKeepFirst, nil
	case PolicyRefresh:
		return entities.DeletedAtRefresh, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, c.DeletedAtPolicy)
	}
}

// RetentionEnabled сообщает, включена ли автоматическая очистка корзины.
func (c *TrashConfig) RetentionEnabled() bool {
	return c.Retention > 0
}

// Validate проверяет политику DeletedAt и интервал очистки при включенном сроке хранения.
func (c *TrashConfig) Validate() error {
	if _, err := c.GetDeletedAtPolicy(); err != nil {
		return err
	}
	if c.RetentionEnabled() && c.PurgeInterval <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidPurgeInterval, c.PurgeInterval)
	}
	return nil
}
