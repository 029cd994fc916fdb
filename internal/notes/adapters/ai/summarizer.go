// Package ai содержит клиент провайдера кратких содержаний, совместимого с OpenAI Chat Completions.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"ainotes/internal/notes/ports/services"
	"ainotes/pkg/logger"
	"ainotes/pkg/resilience"
)

// Константы для логирования.
const (
	methodSummarize    = "Summarizer.Summarize"
	msgRequestingModel = "requesting summary from provider"
	msgSummaryReceived = "summary received"
	errProviderCall    = "summary provider call failed"
)

// ErrNotConfigured возвращается, если ключ провайдера не задан.
var ErrNotConfigured = errors.New("summary provider is not configured")

// Config содержит настройки клиента.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Summarizer вызывает модель через Chat Completions API.
type Summarizer struct {
	client      openai.Client
	model       string
	temperature float64
	enabled     bool
	resilience  *resilience.ServiceResilience
}

var _ services.Summarizer = (*Summarizer)(nil)

// NewSummarizer создает клиента. Повторы выполняет resilience, встроенные повторы SDK отключены.
func NewSummarizer(cfg Config, res *resilience.ServiceResilience) *Summarizer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if res == nil {
		res = resilience.NewServiceResilience("summary-provider")
	}

	return &Summarizer{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		enabled:     cfg.APIKey != "",
		resilience:  res,
	}
}

// Summarize отправляет инструкцию системным сообщением, а текст заметки - пользовательским.
func (s *Summarizer) Summarize(ctx context.Context, instruction, text string) (string, error) {
	log := logger.Log(ctx).With(zap.String("method", methodSummarize), zap.String("model", s.model))

	if !s.enabled {
		return "", ErrNotConfigured
	}

	log.Debug(ctx, msgRequestingModel, zap.Int("text_length", len(text)))

	summary, err := resilience.ExecuteWithResult(ctx, s.resilience, "chat.completions", func() (string, error) {
		return s.complete(ctx, instruction, text)
	})
	if err != nil {
		log.Error(ctx, errProviderCall, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errProviderCall, err)
	}

	log.Debug(ctx, msgSummaryReceived, zap.Int("summary_length", len(summary)))
	return summary, nil
}

func (s *Summarizer) complete(ctx context.Context, instruction, text string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(s.temperature),
	})
	if err != nil {
		return "", classify(err)
	}

	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: %w", resilience.ErrPermanent, services.ErrEmptySummary)
}

// classify помечает клиентские ошибки (кроме 408 и 429) как неповторяемые.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError &&
			status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", resilience.ErrPermanent, err)
		}
	}
	return err
}
