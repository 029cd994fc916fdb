package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainotes/pkg/resilience"
)

var errUpstream = errors.New("upstream unavailable")

func fastRetry(attempts int) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	r := resilience.NewRetry("test", fastRetry(3))

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errUpstream
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	r := resilience.NewRetry("test", fastRetry(5))

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return fmt.Errorf("bad request: %w", resilience.ErrPermanent)
	})

	require.ErrorIs(t, err, resilience.ErrPermanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	r := resilience.NewRetry("test", fastRetry(2))

	calls := 0
	err := r.Execute(context.Background(), func() error {
		calls++
		return errUpstream
	})

	require.ErrorIs(t, err, errUpstream)
	assert.Equal(t, 2, calls)
}

func TestRetry_ContextCanceledDuringBackoff(t *testing.T) {
	cfg := fastRetry(3)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second
	r := resilience.NewRetry("test", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	err := r.Execute(ctx, func() error {
		cancel()
		return errUpstream
	})

	require.ErrorIs(t, err, resilience.ErrContextCanceled)
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test", resilience.CircuitBreakerConfig{
		ErrorThreshold:   2,
		Timeout:          20 * time.Millisecond,
		SuccessThreshold: 1,
	})
	ctx := context.Background()

	fail := func() error { return errUpstream }
	ok := func() error { return nil }

	require.ErrorIs(t, cb.Execute(ctx, fail), errUpstream)
	require.ErrorIs(t, cb.Execute(ctx, fail), errUpstream)
	assert.Equal(t, resilience.StateOpen, cb.State())

	require.ErrorIs(t, cb.Execute(ctx, ok), resilience.ErrCircuitOpen)

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestExecuteWithResult(t *testing.T) {
	r := resilience.NewServiceResilienceWithConfig("svc", resilience.DefaultCircuitBreakerConfig(), fastRetry(2))

	value, err := resilience.ExecuteWithResult(context.Background(), r, "op", func() (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", value)

	value, err = resilience.ExecuteWithResult(context.Background(), r, "op", func() (string, error) {
		return "partial", errUpstream
	})
	require.ErrorIs(t, err, errUpstream)
	assert.Empty(t, value)
	assert.Equal(t, resilience.StateClosed, r.State())
}
