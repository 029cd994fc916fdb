package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ainotes/internal/notes/app"
	"ainotes/internal/notes/domain/entities"
	"ainotes/internal/notes/metrics"
)

func TestLookupLanguage(t *testing.T) {
	for _, code := range []string{"en", "ru", "uk", "sk", "de", "cs"} {
		lang, ok := app.LookupLanguage(code)
		require.True(t, ok, code)
		assert.NotEmpty(t, lang.Prompt)
		assert.NotEmpty(t, lang.Name)
	}

	_, ok := app.LookupLanguage("fr")
	assert.False(t, ok)
	assert.Len(t, app.Languages(), 6)
}

func TestSummaryService_Summarize(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*app.NoteUseCase, *app.SummaryService, *mockSummarizer, *mapCache, *entities.Note) {
		t.Helper()
		cache := newMapCache()
		summarizer := new(mockSummarizer)
		uc, _ := newUseCase(t)
		svc := app.NewSummaryService(uc, summarizer, cache, 0, nil)
		note, err := uc.CreateNote(ctx, alice, "Trip", "Pack the tent")
		require.NoError(t, err)
		return uc, svc, summarizer, cache, note
	}

	t.Run("generates and caches", func(t *testing.T) {
		_, svc, summarizer, cache, note := setup(t)
		lang, _ := app.LookupLanguage("de")
		summarizer.On("Summarize", mock.Anything, lang.Prompt, "Title: Trip\n\nContent: Pack the tent").
			Return("Zelt einpacken", nil).Once()

		first, err := svc.Summarize(ctx, alice, note.ID, "de")
		require.NoError(t, err)
		assert.Equal(t, "Zelt einpacken", first.Summary)
		assert.Equal(t, "Trip", first.OriginalTitle)
		assert.Equal(t, "de", first.Language)
		assert.Equal(t, note.ID, first.NoteID)

		key := fmt.Sprintf("summary:%d:de", note.ID)
		require.True(t, cache.has(key))
		assert.Equal(t, app.DefaultSummaryTTL, cache.ttls[key])

		second, err := svc.Summarize(ctx, alice, note.ID, "de")
		require.NoError(t, err)
		assert.Equal(t, first.Summary, second.Summary)
		summarizer.AssertNumberOfCalls(t, "Summarize", 1)
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, svc, summarizer, _, note := setup(t)

		_, err := svc.Summarize(ctx, alice, note.ID, "fr")
		require.ErrorIs(t, err, app.ErrUnsupportedLanguage)
		summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("trashed note is not summarized", func(t *testing.T) {
		uc, svc, _, _, note := setup(t)
		require.NoError(t, uc.SoftDeleteNote(ctx, alice, note.ID))

		_, err := svc.Summarize(ctx, alice, note.ID, app.DefaultLanguage)
		require.ErrorIs(t, err, app.ErrNotFoundOrDeleted)
	})

	t.Run("other owner's note", func(t *testing.T) {
		_, svc, _, _, note := setup(t)

		_, err := svc.Summarize(ctx, bob, note.ID, app.DefaultLanguage)
		assert.True(t, app.IsNotFound(err))
	})

	t.Run("provider failure", func(t *testing.T) {
		_, svc, summarizer, cache, note := setup(t)
		summarizer.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("upstream down"))

		_, err := svc.Summarize(ctx, alice, note.ID, app.DefaultLanguage)
		require.ErrorIs(t, err, app.ErrSummaryFailed)
		assert.False(t, cache.has(fmt.Sprintf("summary:%d:en", note.ID)))
	})

	t.Run("cache errors do not fail the request", func(t *testing.T) {
		_, svc, summarizer, cache, note := setup(t)
		cache.err = errors.New("redis down")
		summarizer.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return("short", nil)

		summary, err := svc.Summarize(ctx, alice, note.ID, app.DefaultLanguage)
		require.NoError(t, err)
		assert.Equal(t, "short", summary.Summary)
	})
}

func TestSummaryService_InvalidatedOnEdit(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	summarizer := new(mockSummarizer)
	m := metrics.New(prometheus.NewRegistry())

	var svc *app.SummaryService
	uc, _ := newUseCase(t, app.WithChangeListener(listenerFunc(func(ctx context.Context, ownerID string, noteID int64) {
		svc.NoteChanged(ctx, ownerID, noteID)
	})))
	svc = app.NewSummaryService(uc, summarizer, cache, time.Minute, m)

	note, err := uc.CreateNote(ctx, alice, "Trip", "Pack the tent")
	require.NoError(t, err)
	summarizer.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return("first", nil).Once()
	summarizer.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Return("second", nil).Once()

	_, err = svc.Summarize(ctx, alice, note.ID, "en")
	require.NoError(t, err)

	_, err = uc.EditNote(ctx, alice, note.ID, entities.NotePatch{Content: strPtr("Pack the stove")})
	require.NoError(t, err)
	assert.Contains(t, cache.deleted, fmt.Sprintf("summary:%d:cs", note.ID))

	summary, err := svc.Summarize(ctx, alice, note.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, "second", summary.Summary)

	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("summary", "miss")), 0)
}

type listenerFunc func(ctx context.Context, ownerID string, noteID int64)

func (f listenerFunc) NoteChanged(ctx context.Context, ownerID string, noteID int64) {
	f(ctx, ownerID, noteID)
}
