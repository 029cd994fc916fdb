package services

import (
	"context"
	"errors"
)

// ErrEmptySummary возвращается, когда провайдер не вернул текст.
var ErrEmptySummary = errors.New("provider returned an empty summary")

// Summarizer генерирует краткое содержание текста по инструкции.
type Summarizer interface {
	Summarize(ctx context.Context, instruction, text string) (string, error)
}
