package llm

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig controls how transient provider failures are retried.
type RetryConfig struct {
	MaxAttempts int
	// Backoff is multiplied by the attempt number before each retry.
	Backoff time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
	}
}

// RetryProvider retries transient failures of the wrapped provider with a
// linear backoff. Any other failure is returned immediately.
type RetryProvider struct {
	provider LLMProvider
	cfg      RetryConfig
}

var _ LLMProvider = &RetryProvider{}

func WithRetry(p LLMProvider, cfg RetryConfig) *RetryProvider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{provider: p, cfg: cfg}
}

func (r *RetryProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	var lastErr error
	attempt := 1
	for ; attempt <= r.cfg.MaxAttempts; attempt++ {
		resp, err := r.provider.Chat(ctx, history, opts...)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == r.cfg.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * r.cfg.Backoff
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("retry aborted after %d attempt(s): %w", attempt, lastErr)
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("after %d attempt(s): %w", attempt, lastErr)
}

func (r *RetryProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return r.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}
