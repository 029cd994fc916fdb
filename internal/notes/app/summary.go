package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ainotes/internal/notes/metrics"
	"ainotes/internal/notes/ports/services"
	"ainotes/pkg/logger"
)

// DefaultLanguage - язык краткого содержания по умолчанию.
const DefaultLanguage = "en"

// DefaultSummaryTTL - время жизни краткого содержания в кеше.
const DefaultSummaryTTL = time.Hour

// Ошибки генерации краткого содержания.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSummaryFailed       = errors.New("failed to generate summary")
)

// Language описывает поддерживаемый язык.
type Language struct {
	Code   string
	Name   string
	Prompt string
}

var languages = []Language{
	{Code: "en", Name: "English", Prompt: "Summarize the following note concisely, capturing the main points:"},
	{Code: "ru", Name: "Russian", Prompt: "Кратко изложите следующую заметку, выделив основные моменты:"},
	{Code: "uk", Name: "Ukrainian", Prompt: "Стисло підсумуйте наступну нотатку, виділяючи основні моменти:"},
	{Code: "sk", Name: "Slovak", Prompt: "Stručne zhrňte nasledujúcu poznámku, zachytávajúc hlavné body:"},
	{Code: "de", Name: "German", Prompt: "Fassen Sie die folgende Notiz prägnant zusammen und erfassen Sie die Hauptpunkte:"},
	{Code: "cs", Name: "Czech", Prompt: "Stručně shrňte následující poznámku a zachyťte hlavní body:"},
}

// Languages возвращает поддерживаемые языки.
func Languages() []Language {
	return slices.Clone(languages)
}

// LookupLanguage находит язык по коду.
func LookupLanguage(code string) (Language, bool) {
	i := slices.IndexFunc(languages, func(l Language) bool { return l.Code == code })
	if i < 0 {
		return Language{}, false
	}
	return languages[i], true
}

// Summary - краткое содержание заметки.
type Summary struct {
	NoteID        int64     `json:"note_id"`
	OriginalTitle string    `json:"original_title"`
	Summary       string    `json:"summary"`
	GeneratedAt   time.Time `json:"generated_at"`
	Language      string    `json:"language"`
}

func summaryKey(noteID int64, language string) string {
	return "summary:" + strconv.FormatInt(noteID, 10) + ":" + language
}

// SummaryService генерирует и кеширует краткие содержания активных заметок.
type SummaryService struct {
	notes      *NoteUseCase
	summarizer services.Summarizer
	cache      services.Cache
	ttl        time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewSummaryService создает сервис кратких содержаний.
func NewSummaryService(notes *NoteUseCase, summarizer services.Summarizer, cache services.Cache, ttl time.Duration, m *metrics.Metrics) *SummaryService {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryService{
		notes:      notes,
		summarizer: summarizer,
		cache:      cache,
		ttl:        ttl,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Summarize возвращает краткое содержание активной заметки на языке language.
func (s *SummaryService) Summarize(ctx context.Context, ownerID string, noteID int64, language string) (*Summary, error) {
	log := logger.Log(ctx).With(zap.String("method", "SummaryService.Summarize"),
		zap.Int64("noteID", noteID), zap.String("language", language))

	lang, ok := LookupLanguage(language)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	note, err := s.notes.GetNote(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	key := summaryKey(note.ID, lang.Code)
	if cached, ok := s.cached(ctx, key); ok {
		log.Debug(ctx, "summary cache hit")
		return cached, nil
	}

	text := "Title: " + note.Title + "\n\nContent: " + note.Content
	generated, err := s.summarizer.Summarize(ctx, lang.Prompt, text)
	if err != nil {
		log.Error(ctx, ErrSummaryFailed.Error(), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}

	summary := &Summary{
		NoteID:        note.ID,
		OriginalTitle: note.Title,
		Summary:       generated,
		GeneratedAt:   s.now(),
		Language:      lang.Code,
	}

	if payload, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
			log.Warn(ctx, "failed to cache summary", zap.Error(err))
		}
	}

	return summary, nil
}

func (s *SummaryService) cached(ctx context.Context, key string) (*Summary, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, services.ErrCacheMiss) {
			logger.Log(ctx).Warn(ctx, "failed to read summary cache", zap.String("key", key), zap.Error(err))
		}
		s.metrics.TrackCacheLookup("summary", false)
		return nil, false
	}

	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		logger.Log(ctx).Warn(ctx, "discarding malformed cached summary", zap.String("key", key), zap.Error(err))
		s.metrics.TrackCacheLookup("summary", false)
		return nil, false
	}
	s.metrics.TrackCacheLookup("summary", true)
	return &summary, true
}

// NoteChanged удаляет кешированные краткие содержания заметки на всех языках.
func (s *SummaryService) NoteChanged(ctx context.Context, _ string, noteID int64) {
	keys := make([]string, len(languages))
	for i, l := range languages {
		keys[i] = summaryKey(noteID, l.Code)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log(ctx).Warn(ctx, "failed to invalidate summaries", zap.Int64("noteID", noteID), zap.Error(err))
	}
}
