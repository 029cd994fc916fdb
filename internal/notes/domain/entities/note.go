// Package entities defines the domain entities for the notes service.
package entities

import (
	"errors"
	"time"
)

// Ограничения полей заметки.
const (
	MaxTitleLength = 255
)

// Ошибки доменной модели.
var (
	ErrNoteNotActive    = errors.New("note is not active")
	ErrNoteNotTrashed   = errors.New("note is not in trash")
	ErrInvalidSlot      = errors.New("invalid version slot")
	ErrInvalidTimestamp = errors.New("invalid version timestamp")
)

// Note представляет собой заметку пользователя вместе с историей версий.
type Note struct {
	ID        int64
	OwnerID   string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
	DeletedAt *time.Time
	Versions  Versions
}

// NewNote создает активную заметку и записывает в историю первый снимок.
func NewNote(ownerID, title, content string, now time.Time) *Note {
	note := &Note{
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	note.snapshot()
	return note
}

// NotePatch описывает частичное изменение: обновляются только заданные поля.
type NotePatch struct {
	Title   *string
	Content *string
}

// Empty сообщает, что патч не меняет ни одного поля.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

func (n *Note) snapshot() {
	n.Versions = n.Versions.AppendSnapshot(n.Title, n.Content, n.UpdatedAt)
}
