package entities

import "time"

// State - состояние жизненного цикла заметки, вычисляемое из IsDeleted.
type State int

// Состояния жизненного цикла. StateDestroyed не хранится: строка удаляется.
const (
	StateActive State = iota
	StateTrashed
	StateDestroyed
)

// String возвращает имя состояния.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTrashed:
		return "trashed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Scope задает режим поиска заметки.
type Scope int

// Режимы поиска.
const (
	// ScopeActive находит только активные заметки (чтение и редактирование).
	ScopeActive Scope = iota
	// ScopeAny находит заметку в любом состоянии (удаление, восстановление, история).
	ScopeAny
)

// DeletedAtPolicy определяет поведение повторного мягкого удаления.
type DeletedAtPolicy int

// Политики DeletedAt.
const (
	// DeletedAtKeepFirst сохраняет время первого удаления.
	DeletedAtKeepFirst DeletedAtPolicy = iota
	// DeletedAtRefresh переставляет DeletedAt на текущее время при каждом удалении.
	DeletedAtRefresh
)

// State возвращает текущее состояние заметки.
func (n *Note) State() State {
	if n.IsDeleted {
		return StateTrashed
	}
	return StateActive
}

// Edit применяет патч к активной заметке, обновляет UpdatedAt и добавляет снимок в историю.
func (n *Note) Edit(patch NotePatch, now time.Time) error {
	if n.State() != StateActive {
		return ErrNoteNotActive
	}

	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	n.UpdatedAt = now
	n.snapshot()
	return nil
}

// MoveToTrash переводит заметку в корзину. Повторный вызов успешен;
// DeletedAt меняется только при политике DeletedAtRefresh.
// Возвращает true, если заметка изменилась.
func (n *Note) MoveToTrash(now time.Time, policy DeletedAtPolicy) bool {
	if n.IsDeleted && policy == DeletedAtKeepFirst {
		return false
	}
	deletedAt := now
	n.IsDeleted = true
	n.DeletedAt = &deletedAt
	return true
}

// Restore возвращает заметку из корзины.
func (n *Note) Restore() error {
	if n.State() != StateTrashed {
		return ErrNoteNotTrashed
	}
	n.IsDeleted = false
	n.DeletedAt = nil
	return nil
}

// TrashedBefore сообщает, что заметка лежит в корзине с момента раньше cutoff.
func (n *Note) TrashedBefore(cutoff time.Time) bool {
	return n.IsDeleted && n.DeletedAt != nil && n.DeletedAt.Before(cutoff)
}
