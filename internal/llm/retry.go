package llm

import (
	"context"
	"time"

	dferrors "dayflow/internal/errors"
	"dayflow/internal/logging"
)

// retryClient wraps a Client with the central retry policy. Per the error
// handling design, the LLM call is the only place in this core that retries;
// collaborator fetches fail fast to degraded data.
type retryClient struct {
	underlying Client
	config     dferrors.RetryConfig
	logger     logging.Logger
}

// NewRetryClient wraps client with exponential-backoff retry on transient
// errors.
func NewRetryClient(client Client, config dferrors.RetryConfig, logger logging.Logger) Client {
	return &retryClient{
		underlying: client,
		config:     config,
		logger:     logging.OrNop(logger),
	}
}

func (c *retryClient) Model() string {
	return c.underlying.Model()
}

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	var resp *CompletionResponse
	err := dferrors.RetryWithLog(ctx, c.config, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.underlying.Complete(ctx, req)
		return callErr
	}, c.logger)

	if err != nil {
		c.logger.Warn("llm request failed after retries (took %v): %v", time.Since(start), err)
		return nil, err
	}
	return resp, nil
}
