package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainotes/internal/notes/adapters/cache"
	notehttp "ainotes/internal/notes/adapters/http"
	"ainotes/internal/notes/adapters/http/dto"
	"ainotes/internal/notes/adapters/http/handlers"
	"ainotes/internal/notes/adapters/http/middleware"
	"ainotes/internal/notes/adapters/memory"
	identity "ainotes/internal/notes/adapters/services"
	"ainotes/internal/notes/app"
	"ainotes/internal/notes/metrics"
)

const cookieName = "notes_user_id"

type stubSummarizer struct {
	text string
	err  error
}

func (s stubSummarizer) Summarize(context.Context, string, string) (string, error) {
	return s.text, s.err
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app *fiber.App
	reg *prometheus.Registry
}

type serverOption func(*notehttp.Dependencies)

func newTestServer(t *testing.T, summarizer stubSummarizer, opts ...serverOption) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	notes := app.NewNoteUseCase(memory.NewNoteRepository(), app.WithMetrics(m))
	summaries := app.NewSummaryService(notes, summarizer, cache.Noop{}, time.Hour, m)
	analytics := app.NewAnalyticsService(notes, cache.Noop{}, time.Hour, m)
	notes.Subscribe(summaries)
	notes.Subscribe(analytics)

	deps := notehttp.Dependencies{
		Notes:     notes,
		Summaries: summaries,
		Analytics: analytics,
		Identity:  identity.NewJWTIdentity("test-secret", 24*time.Hour),
		IdentityOptions: middleware.IdentityOptions{
			CookieName: cookieName,
			MaxAge:     30 * 24 * time.Hour,
		},
		Metrics:  m,
		Gatherer: reg,
		Health:   pingFunc(func(context.Context) error { return nil }),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	fiberApp := fiber.New()
	notehttp.SetupRouter(fiberApp, deps)
	return &testServer{app: fiberApp, reg: reg}
}

// client хранит cookie владельца между запросами.
type client struct {
	t      *testing.T
	srv    *testServer
	cookie *http.Cookie
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, srv: s}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	resp, err := c.srv.app.Test(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name == cookieName {
			c.cookie = ck
		}
	}

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func (c *client) create(title, content string) dto.NoteResponse {
	c.t.Helper()
	resp, data := c.do(http.MethodPost, "/api/notes", map[string]string{"title": title, "content": content})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[dto.NoteResponse](c.t, data)
}

func TestCreateAndGetNote(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)

	resp, data := alice.do(http.MethodPost, "/api/notes", map[string]string{"title": "Trip", "content": "pack the tent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	require.NotNil(t, alice.cookie)
	assert.True(t, alice.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, alice.cookie.SameSite)
	assert.Equal(t, 30*24*60*60, alice.cookie.MaxAge)

	created := decode[dto.NoteResponse](t, data)
	assert.Equal(t, "Trip", created.Title)
	assert.Equal(t, 1, created.VersionCount)
	assert.Equal(t, 3, created.Versions["1"].WordCount)
	assert.False(t, created.IsDeleted)
	assert.Nil(t, created.DeletedAt)

	resp, data = alice.do(http.MethodGet, fmt.Sprintf("/api/notes/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decode[dto.NoteResponse](t, data).ID)

	issued := alice.cookie.Value
	resp, _ = alice.do(http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, issued, alice.cookie.Value, "existing cookie must be kept")
}

func TestOwnersAreIsolated(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice, bob := srv.client(t), srv.client(t)

	note := alice.create("private", "secret")

	resp, data := bob.do(http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]dto.NoteResponse](t, data))

	_, foreign := bob.do(http.MethodGet, fmt.Sprintf("/api/notes/%d", note.ID), nil)
	resp, missing := bob.do(http.MethodGet, "/api/notes/999999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, string(missing), string(foreign))

	resp, _ = bob.do(http.MethodDelete, fmt.Sprintf("/api/notes/%d?permanent=true", note.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTamperedCookieIssuesNewOwner(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)
	alice.create("mine", "content")

	tampered := alice.cookie.Value + "x"
	alice.cookie = &http.Cookie{Name: cookieName, Value: tampered}
	resp, data := alice.do(http.MethodGet, "/api/notes", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]dto.NoteResponse](t, data))
	assert.NotEqual(t, tampered, alice.cookie.Value, "a fresh token replaces the tampered one")
}

func TestValidation(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)
	note := alice.create("title", "content")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		field  string
	}{
		{name: "empty title", method: http.MethodPost, path: "/api/notes", body: map[string]string{"title": "", "content": "c"}, field: "title"},
		{name: "missing content", method: http.MethodPost, path: "/api/notes", body: map[string]string{"title": "t"}, field: "content"},
		{name: "title too long", method: http.MethodPost, path: "/api/notes", body: map[string]string{"title": strings.Repeat("a", 256), "content": "c"}, field: "title"},
		{name: "empty title on update", method: http.MethodPut, path: fmt.Sprintf("/api/notes/%d", note.ID), body: map[string]string{"title": ""}, field: "title"},
		{name: "empty content on patch", method: http.MethodPatch, path: fmt.Sprintf("/api/notes/%d", note.ID), body: map[string]string{"content": ""}, field: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := alice.do(tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(data))

			body := decode[dto.ValidationErrorResponse](t, data)
			require.NotEmpty(t, body.Detail)
			assert.Equal(t, tt.field, body.Detail[0].Field)
		})
	}

	t.Run("title of 255 multibyte characters is accepted", func(t *testing.T) {
		resp, data := alice.do(http.MethodPost, "/api/notes", map[string]string{"title": strings.Repeat("ж", 255), "content": "c"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	})

	for _, path := range []string{"/api/notes?limit=0", "/api/notes?limit=101", "/api/notes?skip=-1", "/api/notes?limit=x", "/api/notes/abc"} {
		resp, _ := alice.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, path)
	}
}

func TestUpdateNote(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)
	note := alice.create("title", "content")

	var updated dto.NoteResponse
	for i := 1; i <= 6; i++ {
		resp, data := alice.do(http.MethodPut, fmt.Sprintf("/api/notes/%d", note.ID), map[string]string{"content": fmt.Sprintf("edit %d", i)})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		updated = decode[dto.NoteResponse](t, data)
	}

	assert.Equal(t, "title", updated.Title)
	assert.Equal(t, "edit 6", updated.Content)
	assert.Equal(t, 5, updated.VersionCount)
	assert.NotContains(t, updated.Versions, "1")
	assert.NotContains(t, updated.Versions, "2")
	assert.Equal(t, "edit 6", updated.Versions["7"].Content)
	assert.Equal(t, 2, updated.Versions["7"].WordCount)
}

func TestQuotaLimit(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)

	var first dto.NoteResponse
	for i := 0; i < app.NoteLimit; i++ {
		n := alice.create(fmt.Sprintf("n%d", i), "c")
		if i == 0 {
			first = n
		}
	}

	resp, data := alice.do(http.MethodPost, "/api/notes", map[string]string{"title": "over", "content": "c"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[dto.LimitErrorResponse](t, data)
	assert.Equal(t, app.NoteLimit, body.Limit)
	assert.Contains(t, body.Detail, "10 notes")

	resp, _ = alice.do(http.MethodDelete, fmt.Sprintf("/api/notes/%d", first.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	alice.create("replacement", "c")

	resp, _ = alice.do(http.MethodPost, fmt.Sprintf("/api/notes/%d/restore", first.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTrashLifecycle(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)
	note := alice.create("title", "content")
	path := fmt.Sprintf("/api/notes/%d", note.ID)

	resp, _ := alice.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = alice.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, "repeat soft delete succeeds")

	resp, _ = alice.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = alice.do(http.MethodPut, path, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := alice.do(http.MethodGet, "/api/notes?include_deleted=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode[[]dto.NoteResponse](t, data)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsDeleted)
	assert.NotNil(t, listed[0].DeletedAt)

	resp, data = alice.do(http.MethodGet, path+"/versions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[map[string]dto.VersionResponse](t, data), "1")

	resp, data = alice.do(http.MethodPost, path+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.NoteResponse](t, data).IsDeleted)

	resp, _ = alice.do(http.MethodPost, path+"/restore", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = alice.do(http.MethodDelete, path+"?permanent=true", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = alice.do(http.MethodGet, path+"/versions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSummarize(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{text: "short"})
		alice := srv.client(t)
		note := alice.create("title", "content")

		resp, data := alice.do(http.MethodGet, fmt.Sprintf("/api/ai/summarize/%d?language=sk", note.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		summary := decode[app.Summary](t, data)
		assert.Equal(t, "short", summary.Summary)
		assert.Equal(t, "sk", summary.Language)
		assert.Equal(t, note.ID, summary.NoteID)
	})

	t.Run("unsupported language", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{text: "short"})
		alice := srv.client(t)
		note := alice.create("title", "content")

		resp, data := alice.do(http.MethodGet, fmt.Sprintf("/api/ai/summarize/%d?language=fr", note.ID), nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[dto.ErrorResponse](t, data).Detail, "en, ru, uk, sk, de, cs")
	})

	t.Run("provider failure", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{err: errors.New("boom")})
		alice := srv.client(t)
		note := alice.create("title", "content")

		resp, data := alice.do(http.MethodGet, fmt.Sprintf("/api/ai/summarize/%d", note.ID), nil)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, handlers.MsgSummaryFailed, decode[dto.ErrorResponse](t, data).Detail)
	})

	t.Run("languages", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{})
		resp, data := srv.client(t).do(http.MethodGet, "/api/ai/languages", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		langs := decode[dto.LanguagesResponse](t, data)
		assert.Len(t, langs.SupportedLanguages, 6)
		assert.Equal(t, "Czech", langs.SupportedLanguages["cs"])
	})
}

func TestAnalytics(t *testing.T) {
	srv := newTestServer(t, stubSummarizer{})
	alice := srv.client(t)
	alice.create("one", "alpha beta alpha")
	alice.create("two", "gamma")
	srv.client(t).create("other owner", "delta delta")

	resp, data := alice.do(http.MethodGet, "/api/analytics?refresh=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	got := decode[app.Analytics](t, data)
	assert.Equal(t, 2, got.TotalNotesCount)
	assert.Equal(t, 4, got.TotalWordCount)
	assert.Equal(t, "alpha", got.TopCommonWords[0].Word)
	assert.Equal(t, "local", got.AnalysisMethod)
}

func TestOperationalEndpoints(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{})
		resp, _ := srv.client(t).do(http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("database down", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{}, func(d *notehttp.Dependencies) {
			d.Health = pingFunc(func(context.Context) error { return errors.New("down") })
		})
		resp, _ := srv.client(t).do(http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{})
		c := srv.client(t)
		c.create("t", "c")

		resp, data := c.do(http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Regexp(t, `notes_http_requests_total\{method="POST",route="[^"]+",status="201"\} 1`, string(data))
		assert.Contains(t, string(data), `notes_operations_total{operation="create",result="ok"} 1`)
	})

	t.Run("request id is echoed", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(middleware.HeaderRequestID, "req-42")

		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "req-42", resp.Header.Get(middleware.HeaderRequestID))
	})

	t.Run("unknown route", func(t *testing.T) {
		srv := newTestServer(t, stubSummarizer{})
		resp, _ := srv.client(t).do(http.MethodGet, "/nope", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{RPS: 0.001, Burst: 2})
	t.Cleanup(limiter.Stop)

	srv := newTestServer(t, stubSummarizer{}, func(d *notehttp.Dependencies) {
		d.RateLimiter = limiter
	})
	alice, bob := srv.client(t), srv.client(t)

	for i := 0; i < 2; i++ {
		resp, _ := alice.do(http.MethodGet, "/api/notes", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, _ := alice.do(http.MethodGet, "/api/notes", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp, _ = bob.do(http.MethodGet, "/api/notes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "limits are per owner")
	assert.Equal(t, 2, limiter.Len())
}
