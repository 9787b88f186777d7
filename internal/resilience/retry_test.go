package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoVal_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastRetryConfig(3), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDoVal_RetriesTransient(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastRetryConfig(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("http 503"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetryConfig(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("http 404")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetryConfig(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("http 429"), 429)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastRetryConfig(10), func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("http 502"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetryConfig(3)
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		return NewTransientError(errors.New("http 500"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("http 400 bad request")))
	assert.True(t, IsTransient(NewTransientError(errors.New("http 429"), 429)))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))
	assert.True(t, IsTransient(errors.New("lookup api.example.com: no such host")))
}
