package cache

import (
	"context"
	"time"

	"ainotes/internal/notes/ports/services"
)

// Noop - кеш, который ничего не хранит. Используется, когда Redis недоступен.
type Noop struct{}

var _ services.Cache = Noop{}

// Get всегда возвращает services.ErrCacheMiss.
func (Noop) Get(context.Context, string) (string, error) { return "", services.ErrCacheMiss }

// Set ничего не делает.
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }

// Delete ничего не делает.
func (Noop) Delete(context.Context, ...string) error { return nil }
