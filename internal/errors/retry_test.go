package errors

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRetriesTransient(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &TransientError{Message: "rate limited", StatusCode: 429}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	permanent := &PermanentError{Message: "bad request", StatusCode: 400}
	err := Retry(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var p *PermanentError
	assert.True(t, stderrors.As(err, &p))
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return &TransientError{Message: "still down"}
	})

	require.Error(t, err)
	// MaxAttempts 2 means 3 total calls.
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.Zero(t, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWaitsOutServerRetryAfter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	err := Retry(ctx, fastRetryConfig(), func(ctx context.Context) error {
		calls++
		return &TransientError{Message: "throttled", StatusCode: 429, RetryAfter: 1}
	})

	require.Error(t, err)
	// The 1s server wait replaces the 1ms backoff and outlives the 50ms
	// context, so only one attempt runs before cancellation.
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&TransientError{Message: "x"}))
	assert.False(t, IsTransient(&PermanentError{Message: "x"}))
	assert.False(t, IsTransient(stderrors.New("plain error")))

	// Wrapped classification survives.
	wrapped := &TransientError{Err: stderrors.New("inner")}
	assert.True(t, IsTransient(wrapped))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorTypeDegraded, Classify(&DegradedError{Message: "partial"}))
	assert.Equal(t, ErrorTypeTransient, Classify(&TransientError{Message: "retry"}))
	assert.Equal(t, ErrorTypePermanent, Classify(stderrors.New("nope")))
}

func TestFromStatusCode(t *testing.T) {
	base := stderrors.New("http error")

	assert.IsType(t, &TransientError{}, FromStatusCode(429, base))
	assert.IsType(t, &TransientError{}, FromStatusCode(503, base))
	assert.IsType(t, &PermanentError{}, FromStatusCode(400, base))
	assert.IsType(t, &PermanentError{}, FromStatusCode(404, base))
	assert.Equal(t, base, FromStatusCode(200, base))
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	config := RetryConfig{BaseDelay: 10 * time.Millisecond, MaxDelay: 40 * time.Millisecond, JitterFactor: 0}

	assert.Equal(t, 10*time.Millisecond, calculateBackoff(0, config))
	assert.Equal(t, 20*time.Millisecond, calculateBackoff(1, config))
	assert.Equal(t, 40*time.Millisecond, calculateBackoff(2, config))
	assert.Equal(t, 40*time.Millisecond, calculateBackoff(5, config))
}

func TestBackoffForError(t *testing.T) {
	delay, ok := BackoffForError(&TransientError{RetryAfter: 7})
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, delay)

	_, ok = BackoffForError(stderrors.New("plain"))
	assert.False(t, ok)
}
