package app

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"ainotes/internal/notes/domain/entities"
	"ainotes/internal/notes/metrics"
	"ainotes/internal/notes/ports/services"
	"ainotes/pkg/logger"
)

// Параметры аналитики.
const (
	DefaultAnalyticsTTL = time.Hour
	topWordsLimit       = 10
	notesRankLimit      = 3
	analysisMethod      = "local"
)

// WordCount - слово и число его вхождений.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// NoteLength - заметка и число слов в ней.
type NoteLength struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
}

// Analytics - статистика по заметкам владельца.
type Analytics struct {
	TotalNotesCount   int            `json:"total_notes_count"`
	ActiveNotesCount  int            `json:"active_notes_count"`
	DeletedNotesCount int            `json:"deleted_notes_count"`
	TotalWordCount    int            `json:"total_word_count"`
	AverageNoteLength float64        `json:"average_note_length"`
	TopCommonWords    []WordCount    `json:"top_common_words"`
	LongestNotes      []NoteLength   `json:"longest_notes"`
	ShortestNotes     []NoteLength   `json:"shortest_notes"`
	NotesByDate       map[string]int `json:"notes_by_date"`
	GeneratedAt       time.Time      `json:"generated_at"`
	AnalysisMethod    string         `json:"analysis_method"`
	Cached            bool           `json:"cached"`
}

func analyticsKey(ownerID string) string {
	return "analytics:" + ownerID
}

// AnalyticsService считает и кеширует статистику заметок владельца.
type AnalyticsService struct {
	notes   *NoteUseCase
	cache   services.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAnalyticsService создает сервис аналитики.
func NewAnalyticsService(notes *NoteUseCase, cache services.Cache, ttl time.Duration, m *metrics.Metrics) *AnalyticsService {
	if ttl <= 0 {
		ttl = DefaultAnalyticsTTL
	}
	return &AnalyticsService{
		notes:   notes,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Calculate возвращает статистику владельца; refresh игнорирует кеш.
func (s *AnalyticsService) Calculate(ctx context.Context, ownerID string, refresh bool) (*Analytics, error) {
	log := logger.Log(ctx).With(zap.String("method", "AnalyticsService.Calculate"), zap.String("ownerID", ownerID))
	key := analyticsKey(ownerID)

	if !refresh {
		if cached, ok := s.cached(ctx, key); ok {
			log.Debug(ctx, "analytics cache hit")
			return cached, nil
		}
	}

	notes, err := s.notes.ListAllNotes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("calculate analytics: %w", err)
	}

	result := Analyze(notes, s.now())

	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
			log.Warn(ctx, "failed to cache analytics", zap.Error(err))
		}
	}

	return result, nil
}

func (s *AnalyticsService) cached(ctx context.Context, key string) (*Analytics, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, services.ErrCacheMiss) {
			logger.Log(ctx).Warn(ctx, "failed to read analytics cache", zap.Error(err))
		}
		s.metrics.TrackCacheLookup("analytics", false)
		return nil, false
	}

	var result Analytics
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.metrics.TrackCacheLookup("analytics", false)
		return nil, false
	}
	s.metrics.TrackCacheLookup("analytics", true)
	result.Cached = true
	return &result, true
}

// NoteChanged сбрасывает кешированную аналитику владельца.
func (s *AnalyticsService) NoteChanged(ctx context.Context, ownerID string, _ int64) {
	if err := s.cache.Delete(ctx, analyticsKey(ownerID)); err != nil {
		logger.Log(ctx).Warn(ctx, "failed to invalidate analytics", zap.String("ownerID", ownerID), zap.Error(err))
	}
}

// Analyze считает статистику по набору заметок. Текстовые показатели учитывают только активные заметки.
func Analyze(notes []*entities.Note, now time.Time) *Analytics {
	result := &Analytics{
		TopCommonWords: []WordCount{},
		LongestNotes:   []NoteLength{},
		ShortestNotes:  []NoteLength{},
		NotesByDate:    map[string]int{},
		GeneratedAt:    now,
		AnalysisMethod: analysisMethod,
	}

	lengths := make([]NoteLength, 0, len(notes))
	counts := map[string]int{}
	firstSeen := map[string]int{}

	for _, note := range notes {
		result.TotalNotesCount++
		if note.IsDeleted {
			result.DeletedNotesCount++
			continue
		}
		result.ActiveNotesCount++

		words := Tokenize(note.Content)
		result.TotalWordCount += len(words)
		lengths = append(lengths, NoteLength{ID: note.ID, Title: note.Title, WordCount: len(words)})
		result.NotesByDate[note.CreatedAt.UTC().Format(time.DateOnly)]++

		for _, w := range words {
			if !isCountable(w) {
				continue
			}
			if _, ok := firstSeen[w]; !ok {
				firstSeen[w] = len(firstSeen)
			}
			counts[w]++
		}
	}

	if result.ActiveNotesCount == 0 {
		return result
	}
	result.AverageNoteLength = float64(result.TotalWordCount) / float64(result.ActiveNotesCount)

	for w, c := range counts {
		result.TopCommonWords = append(result.TopCommonWords, WordCount{Word: w, Count: c})
	}
	slices.SortFunc(result.TopCommonWords, func(a, b WordCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(firstSeen[a.Word], firstSeen[b.Word])
	})
	result.TopCommonWords = result.TopCommonWords[:min(topWordsLimit, len(result.TopCommonWords))]

	slices.SortFunc(lengths, func(a, b NoteLength) int {
		if c := cmp.Compare(b.WordCount, a.WordCount); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	result.LongestNotes = slices.Clone(lengths[:min(notesRankLimit, len(lengths))])

	slices.SortStableFunc(lengths, func(a, b NoteLength) int {
		if c := cmp.Compare(a.WordCount, b.WordCount); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	result.ShortestNotes = slices.Clone(lengths[:min(notesRankLimit, len(lengths))])

	return result
}
