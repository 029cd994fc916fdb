package app

import (
	"errors"
	"fmt"
)

// Ошибки уровня бизнес-логики.
var (
	ErrNotFound          = errors.New("note not found")
	ErrNotFoundOrDeleted = errors.New("note not found or deleted")
	ErrNotFoundInTrash   = errors.New("note not found in trash")
	ErrInvalidParams     = errors.New("invalid parameters")
)

// LimitExceededError возвращается, когда владелец достиг лимита активных заметок.
type LimitExceededError struct {
	Limit int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("active note limit of %d reached", e.Limit)
}

// IsNotFound сообщает, что err означает отсутствие заметки в любом из вариантов.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotFoundOrDeleted) ||
		errors.Is(err, ErrNotFoundInTrash)
}

// IsLimitExceeded сообщает, что err вызвана превышением лимита, и возвращает лимит.
func IsLimitExceeded(err error) (int, bool) {
	var limitErr *LimitExceededError
	if errors.As(err, &limitErr) {
		return limitErr.Limit, true
	}
	return 0, false
}
