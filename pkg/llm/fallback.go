package llm

import (
	"context"
	"fmt"
	"time"
)

// DefaultPrimaryShare is the part of the remaining deadline the primary model
// may use before the fallback gets the rest.
const DefaultPrimaryShare = 0.6

// FallbackProvider retries a failed call once on a cheaper model, but only
// when the failed call targeted the primary (top-tier) model.
type FallbackProvider struct {
	provider     LLMProvider
	primary      string
	fallback     string
	primaryShare float64
}

var _ LLMProvider = &FallbackProvider{}

func WithFallback(p LLMProvider, primary, fallback string) *FallbackProvider {
	return &FallbackProvider{provider: p, primary: primary, fallback: fallback, primaryShare: DefaultPrimaryShare}
}

// WithPrimaryShare changes the share of the deadline given to the primary
// model. Values outside (0, 1) are ignored.
func (f *FallbackProvider) WithPrimaryShare(share float64) *FallbackProvider {
	if share > 0 && share < 1 {
		f.primaryShare = share
	}
	return f
}

func (f *FallbackProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	model := ResolveOptions(opts...).Model
	if f.fallback == "" || f.fallback == f.primary || model != f.primary {
		return f.provider.Chat(ctx, history, opts...)
	}

	primaryCtx, cancel := f.primaryContext(ctx)
	resp, err := f.provider.Chat(primaryCtx, history, opts...)
	cancel()
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	fallbackOpts := append(append([]Option{}, opts...), WithModel(f.fallback))
	resp, fbErr := f.provider.Chat(ctx, history, fallbackOpts...)
	if fbErr != nil {
		return "", fmt.Errorf("fallback %s failed after %s: %w", f.fallback, f.primary, fbErr)
	}
	return resp, nil
}

// primaryContext keeps part of the caller's deadline in reserve so a slow
// primary still leaves time for the fallback.
func (f *FallbackProvider) primaryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	budget := time.Duration(float64(time.Until(deadline)) * f.primaryShare)
	return context.WithTimeout(ctx, budget)
}

func (f *FallbackProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return f.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}
