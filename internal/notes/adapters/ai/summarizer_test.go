package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainotes/internal/notes/adapters/ai"
	"ainotes/internal/notes/ports/services"
	"ainotes/pkg/resilience"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func fastResilience() *resilience.ServiceResilience {
	return resilience.NewServiceResilienceWithConfig("test-provider",
		resilience.DefaultCircuitBreakerConfig(),
		resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			BackoffFactor:  1,
		})
}

func newSummarizer(url string) *ai.Summarizer {
	return ai.NewSummarizer(ai.Config{
		APIKey:  "test-key",
		BaseURL: url + "/",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, fastResilience())
}

func TestSummarizer_Summarize(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("  A short summary.  "))
	}))
	defer srv.Close()

	summary, err := newSummarizer(srv.URL).Summarize(context.Background(), "Summarize in English.", "Long note text")

	require.NoError(t, err)
	assert.Equal(t, "A short summary.", summary)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Summarize in English.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Long note text", got.Messages[1].Content)
}

func TestSummarizer_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(completion("ok"))
	}))
	defer srv.Close()

	summary, err := newSummarizer(srv.URL).Summarize(context.Background(), "i", "t")

	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSummarizer_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := newSummarizer(srv.URL).Summarize(context.Background(), "i", "t")

	require.ErrorIs(t, err, resilience.ErrPermanent)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSummarizer_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("   "))
	}))
	defer srv.Close()

	_, err := newSummarizer(srv.URL).Summarize(context.Background(), "i", "t")

	require.ErrorIs(t, err, services.ErrEmptySummary)
}

func TestSummarizer_NotConfigured(t *testing.T) {
	s := ai.NewSummarizer(ai.Config{Model: "m"}, nil)

	_, err := s.Summarize(context.Background(), "i", "t")
	require.ErrorIs(t, err, ai.ErrNotConfigured)
}
