package app

import (
	"context"
	"fmt"

	"ainotes/internal/notes/ports/repositories"
)

// NoteLimit - максимальное число активных заметок одного владельца.
const NoteLimit = 10

// QuotaGate проверяет лимит активных заметок владельца.
// Проверка корректна только внутри NoteRepository.WithOwnerLock.
type QuotaGate struct {
	limit int
}

// NewQuotaGate создает QuotaGate с лимитом limit; неположительное значение заменяется NoteLimit.
func NewQuotaGate(limit int) QuotaGate {
	if limit <= 0 {
		limit = NoteLimit
	}
	return QuotaGate{limit: limit}
}

// Limit возвращает действующий лимит.
func (q QuotaGate) Limit() int {
	return q.limit
}

// IsAtLimit сообщает, что у владельца уже limit или больше активных заметок.
func (q QuotaGate) IsAtLimit(ctx context.Context, repo repositories.NoteRepository, ownerID string) (bool, error) {
	count, err := repo.CountActive(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("count active notes: %w", err)
	}
	return count >= q.limit, nil
}

// Check возвращает *LimitExceededError, если владелец достиг лимита.
func (q QuotaGate) Check(ctx context.Context, repo repositories.NoteRepository, ownerID string) error {
	atLimit, err := q.IsAtLimit(ctx, repo, ownerID)
	if err != nil {
		return err
	}
	if atLimit {
		return &LimitExceededError{Limit: q.limit}
	}
	return nil
}
