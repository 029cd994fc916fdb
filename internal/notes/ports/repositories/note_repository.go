// Package repositories defines repository interfaces for the notes service.
package repositories

import (
	"context"
	"time"

	"ainotes/internal/notes/domain/entities"
)

// NoteRepository определяет интерфейс для работы с репозиторием заметок.
//
// Все методы ограничены владельцем: заметка другого владельца неотличима от
// отсутствующей. GetByID возвращает nil, nil, если заметка не найдена.
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) (int64, error)
	GetByID(ctx context.Context, ownerID string, noteID int64, scope entities.Scope) (*entities.Note, error)
	List(ctx context.Context, ownerID string, includeDeleted bool, offset, limit int) ([]*entities.Note, error)
	ListAll(ctx context.Context, ownerID string) ([]*entities.Note, error)
	CountActive(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, note *entities.Note) error
	Delete(ctx context.Context, ownerID string, noteID int64) error
	PurgeTrashed(ctx context.Context, cutoff time.Time) ([]*entities.Note, error)

	// WithOwnerLock выполняет fn атомарно относительно других вызовов
	// WithOwnerLock того же владельца. Репозиторий, переданный в fn,
	// работает внутри той же транзакции.
	WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context, repo NoteRepository) error) error
}
