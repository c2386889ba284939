package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dferrors "dayflow/internal/errors"
)

// flakyClient fails a fixed number of times before succeeding.
type flakyClient struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyClient) Model() string { return "flaky" }

func (f *flakyClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func fastConfig() dferrors.RetryConfig {
	return dferrors.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryClientRecoversFromTransient(t *testing.T) {
	flaky := &flakyClient{failures: 2, err: &dferrors.TransientError{Message: "overloaded", StatusCode: 503}}
	client := NewRetryClient(flaky, fastConfig(), nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryClientDoesNotRetryPermanent(t *testing.T) {
	flaky := &flakyClient{failures: 10, err: &dferrors.PermanentError{Message: "invalid key", StatusCode: 401}}
	client := NewRetryClient(flaky, fastConfig(), nil)

	_, err := client.Complete(context.Background(), CompletionRequest{})

	require.Error(t, err)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetryClientGivesUpEventually(t *testing.T) {
	flaky := &flakyClient{failures: 10, err: &dferrors.TransientError{Message: "down"}}
	client := NewRetryClient(flaky, fastConfig(), nil)

	_, err := client.Complete(context.Background(), CompletionRequest{})

	require.Error(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryClientPassesThroughModel(t *testing.T) {
	client := NewRetryClient(&flakyClient{}, fastConfig(), nil)
	assert.Equal(t, "flaky", client.Model())
}

func TestMockClientReplaysResponses(t *testing.T) {
	mock := NewMockClient("first", "second")

	resp, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	// Exhausted responses repeat the last one.
	resp, err = mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)
}

func TestMockClientFail(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockClient("unused").Fail(boom)

	_, err := mock.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount())
}
