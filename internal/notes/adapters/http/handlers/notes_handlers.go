// Package handlers содержит HTTP-обработчики сервиса заметок.
package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"ainotes/internal/notes/adapters/http/dto"
	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/internal/notes/app"
	"ainotes/internal/notes/domain/entities"
	"ainotes/pkg/logger"
)

// NoteService описывает операции с заметками, нужные обработчикам.
type NoteService interface {
	CreateNote(ctx context.Context, ownerID, title, content string) (*entities.Note, error)
	GetNote(ctx context.Context, ownerID string, noteID int64) (*entities.Note, error)
	EditNote(ctx context.Context, ownerID string, noteID int64, patch entities.NotePatch) (*entities.Note, error)
	SoftDeleteNote(ctx context.Context, ownerID string, noteID int64) error
	PermanentlyDeleteNote(ctx context.Context, ownerID string, noteID int64) error
	RestoreNote(ctx context.Context, ownerID string, noteID int64) (*entities.Note, error)
	GetVersionHistory(ctx context.Context, ownerID string, noteID int64) (entities.Versions, error)
	ListNotes(ctx context.Context, ownerID string, includeDeleted bool, offset, limit int) ([]*entities.Note, error)
}

// NotesHandler обработчик HTTP-запросов для работы с заметками.
type NotesHandler struct {
	notes NoteService
}

// NewNotesHandler создает новый экземпляр обработчика заметок.
func NewNotesHandler(notes NoteService) *NotesHandler {
	return &NotesHandler{notes: notes}
}

// ListNotes обрабатывает GET /api/notes?skip&limit&include_deleted.
func (h *NotesHandler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)

	skip, err1 := strconv.Atoi(ctx.Query("skip", "0"))
	limit, err2 := strconv.Atoi(ctx.Query("limit", strconv.Itoa(app.DefaultListLimit)))
	includeDeleted, err3 := strconv.ParseBool(ctx.Query("include_deleted", "false"))
	if err1 != nil || err2 != nil || err3 != nil {
		return respondInvalidParams(ctx)
	}

	notes, err := h.notes.ListNotes(requestCtx, middleware.OwnerID(ctx), includeDeleted, skip, limit)
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, dto.NewNoteListResponse(notes))
}

// GetNote обрабатывает GET /api/notes/:id.
func (h *NotesHandler) GetNote(ctx fiber.Ctx) error {
	noteID, ok := noteIDParam(ctx)
	if !ok {
		return respondInvalidParams(ctx)
	}

	note, err := h.notes.GetNote(middleware.RequestContext(ctx), middleware.OwnerID(ctx), noteID)
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, dto.NewNoteResponse(note))
}

// CreateNote обрабатывает POST /api/notes.
func (h *NotesHandler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.CreateNote"))

	var req dto.CreateNoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, MsgInvalidRequest, zap.Error(err))
		return respondInvalidBody(ctx, err)
	}
	if err := dto.Validate(&req); err != nil {
		return respondInvalidBody(ctx, err)
	}

	note, err := h.notes.CreateNote(requestCtx, middleware.OwnerID(ctx), req.Title, req.Content)
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusCreated, dto.NewNoteResponse(note))
}

// UpdateNote обрабатывает PUT и PATCH /api/notes/:id.
func (h *NotesHandler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "NotesHandler.UpdateNote"))

	noteID, ok := noteIDParam(ctx)
	if !ok {
		return respondInvalidParams(ctx)
	}

	var req dto.UpdateNoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, MsgInvalidRequest, zap.Error(err))
		return respondInvalidBody(ctx, err)
	}
	if err := dto.Validate(&req); err != nil {
		return respondInvalidBody(ctx, err)
	}

	note, err := h.notes.EditNote(requestCtx, middleware.OwnerID(ctx), noteID, req.Patch())
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, dto.NewNoteResponse(note))
}

// DeleteNote обрабатывает DELETE /api/notes/:id?permanent=true|false.
func (h *NotesHandler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)

	noteID, ok := noteIDParam(ctx)
	if !ok {
		return respondInvalidParams(ctx)
	}
	permanent, err := strconv.ParseBool(ctx.Query("permanent", "false"))
	if err != nil {
		return respondInvalidParams(ctx)
	}

	ownerID := middleware.OwnerID(ctx)
	if permanent {
		err = h.notes.PermanentlyDeleteNote(requestCtx, ownerID, noteID)
	} else {
		err = h.notes.SoftDeleteNote(requestCtx, ownerID, noteID)
	}
	if err != nil {
		return respondError(ctx, err)
	}

	if err := ctx.SendStatus(fiber.StatusNoContent); err != nil {
		return err
	}
	return nil
}

// RestoreNote обрабатывает POST /api/notes/:id/restore.
func (h *NotesHandler) RestoreNote(ctx fiber.Ctx) error {
	noteID, ok := noteIDParam(ctx)
	if !ok {
		return respondInvalidParams(ctx)
	}

	note, err := h.notes.RestoreNote(middleware.RequestContext(ctx), middleware.OwnerID(ctx), noteID)
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, dto.NewNoteResponse(note))
}

// GetVersions обрабатывает GET /api/notes/:id/versions.
func (h *NotesHandler) GetVersions(ctx fiber.Ctx) error {
	noteID, ok := noteIDParam(ctx)
	if !ok {
		return respondInvalidParams(ctx)
	}

	versions, err := h.notes.GetVersionHistory(middleware.RequestContext(ctx), middleware.OwnerID(ctx), noteID)
	if err != nil {
		return respondError(ctx, err)
	}
	return send(ctx, fiber.StatusOK, dto.NewVersions(versions))
}

func noteIDParam(ctx fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
