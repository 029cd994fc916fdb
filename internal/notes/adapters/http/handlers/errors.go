package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"ainotes/internal/notes/adapters/http/dto"
	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/internal/notes/app"
	"ainotes/pkg/logger"
)

// Тексты ответов с ошибками.
const (
	MsgNoteNotFound      = "Note not found"
	MsgInternalError     = "Internal server error"
	MsgSummaryFailed     = "Failed to generate summary. Please try again later."
	MsgInvalidRequest    = "Invalid request body"
	MsgInvalidParameters = "Invalid query parameters"
)

// respondError преобразует ошибку бизнес-логики в HTTP-ответ. Все варианты
// отсутствия заметки дают одинаковый ответ 404.
func respondError(ctx fiber.Ctx, err error) error {
	switch limit, limited := app.IsLimitExceeded(err); {
	case app.IsNotFound(err):
		return send(ctx, fiber.StatusNotFound, dto.ErrorResponse{Detail: MsgNoteNotFound})
	case limited:
		return send(ctx, fiber.StatusForbidden, dto.LimitErrorResponse{
			Detail: fmt.Sprintf("You have reached the limit of %d notes. Please delete some notes first.", limit),
			Limit:  limit,
		})
	case errors.Is(err, app.ErrUnsupportedLanguage):
		codes := make([]string, 0)
		for _, l := range app.Languages() {
			codes = append(codes, l.Code)
		}
		return send(ctx, fiber.StatusBadRequest, dto.ErrorResponse{
			Detail: fmt.Sprintf("%s. Supported languages: %s", err.Error(), strings.Join(codes, ", ")),
		})
	case errors.Is(err, app.ErrInvalidParams):
		return send(ctx, fiber.StatusUnprocessableEntity, dto.ErrorResponse{Detail: MsgInvalidParameters})
	case errors.Is(err, app.ErrSummaryFailed):
		return send(ctx, fiber.StatusInternalServerError, dto.ErrorResponse{Detail: MsgSummaryFailed})
	}

	requestCtx := middleware.RequestContext(ctx)
	logger.Log(requestCtx).Error(requestCtx, "unhandled error", zap.String("path", ctx.Path()), zap.Error(err))
	return send(ctx, fiber.StatusInternalServerError, dto.ErrorResponse{Detail: MsgInternalError})
}

// respondInvalidBody отвечает 422 с ошибками полей либо с общим сообщением.
func respondInvalidBody(ctx fiber.Ctx, err error) error {
	if fields, ok := dto.FieldErrors(err); ok {
		return send(ctx, fiber.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: fields})
	}
	return send(ctx, fiber.StatusUnprocessableEntity, dto.ErrorResponse{Detail: MsgInvalidRequest})
}

func respondInvalidParams(ctx fiber.Ctx) error {
	return send(ctx, fiber.StatusUnprocessableEntity, dto.ErrorResponse{Detail: MsgInvalidParameters})
}

func send(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}
