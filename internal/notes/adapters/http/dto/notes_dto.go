// Package dto содержит структуры запросов и ответов HTTP API заметок.
package dto

import (
	"strconv"
	"time"

	"ainotes/internal/notes/app"
	"ainotes/internal/notes/domain/entities"
)

// CreateNoteRequest содержит данные для создания заметки.
type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required,min=1"`
}

// UpdateNoteRequest содержит данные для обновления заметки. Пустые поля не меняются.
type UpdateNoteRequest struct {
	Title   *string `json:"title" validate:"omitnil,min=1,max=255"`
	Content *string `json:"content" validate:"omitnil,min=1"`
}

// Patch преобразует запрос в доменный патч.
func (r *UpdateNoteRequest) Patch() entities.NotePatch {
	return entities.NotePatch{Title: r.Title, Content: r.Content}
}

// VersionResponse - снимок заметки в истории версий.
type VersionResponse struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
	WordCount int       `json:"word_count"`
}

// NoteResponse содержит информацию о заметке для ответа.
type NoteResponse struct {
	ID           int64                      `json:"id"`
	Title        string                     `json:"title"`
	Content      string                     `json:"content"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
	IsDeleted    bool                       `json:"is_deleted"`
	DeletedAt    *time.Time                 `json:"deleted_at"`
	Versions     map[string]VersionResponse `json:"versions"`
	VersionCount int                        `json:"version_count"`
}

// NewVersions собирает историю в виде словаря "номер слота" -> снимок.
func NewVersions(versions entities.Versions) map[string]VersionResponse {
	out := make(map[string]VersionResponse, versions.Len())
	for _, v := range versions.Entries() {
		out[strconv.Itoa(v.Slot)] = VersionResponse{
			Title:     v.Title,
			Content:   v.Content,
			UpdatedAt: v.UpdatedAt,
			WordCount: app.VersionWordCount(v.Content),
		}
	}
	return out
}

// NewNoteResponse преобразует заметку в ответ.
func NewNoteResponse(note *entities.Note) NoteResponse {
	return NoteResponse{
		ID:           note.ID,
		Title:        note.Title,
		Content:      note.Content,
		CreatedAt:    note.CreatedAt,
		UpdatedAt:    note.UpdatedAt,
		IsDeleted:    note.IsDeleted,
		DeletedAt:    note.DeletedAt,
		Versions:     NewVersions(note.Versions),
		VersionCount: note.Versions.Len(),
	}
}

// NewNoteListResponse преобразует список заметок.
func NewNoteListResponse(notes []*entities.Note) []NoteResponse {
	out := make([]NoteResponse, len(notes))
	for i, n := range notes {
		out[i] = NewNoteResponse(n)
	}
	return out
}

// LanguagesResponse перечисляет поддерживаемые языки кратких содержаний.
type LanguagesResponse struct {
	SupportedLanguages map[string]string `json:"supported_languages"`
}

// NewLanguagesResponse собирает ответ со списком языков.
func NewLanguagesResponse(langs []app.Language) LanguagesResponse {
	out := LanguagesResponse{SupportedLanguages: make(map[string]string, len(langs))}
	for _, l := range langs {
		out.SupportedLanguages[l.Code] = l.Name
	}
	return out
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// LimitErrorResponse - ответ при превышении лимита активных заметок.
type LimitErrorResponse struct {
	Detail string `json:"detail"`
	Limit  int    `json:"limit"`
}

// FieldError описывает ошибку проверки одного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse - ответ при неверном теле запроса.
type ValidationErrorResponse struct {
	Detail []FieldError `json:"detail"`
}
