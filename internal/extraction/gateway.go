package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andretaki/simurgh/internal/config"
)

// Gateway routes completions to a primary provider with retry, falling back
// to a secondary provider (and its model) when the primary is exhausted.
type Gateway struct {
	providers     map[string]Provider
	primary       string
	primaryModel  string
	fallback      string
	fallbackModel string
	maxRetries    int
}

func NewGateway(cfg config.LLMConfig) *Gateway {
	g := &Gateway{
		providers:     make(map[string]Provider),
		primary:       cfg.DefaultProvider,
		primaryModel:  cfg.DefaultModel,
		fallback:      cfg.FallbackProvider,
		fallbackModel: cfg.FallbackModel,
		maxRetries:    cfg.MaxRetries,
	}

	if cfg.OpenAIKey != "" {
		g.providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		g.providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}

	return g
}

func (g *Gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

// Complete fills in the primary model when the request leaves it empty.
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		req.Model = g.primaryModel
	}

	resp, err := g.completeWithRetry(ctx, g.primary, req)
	if err != nil && g.fallback != "" && g.fallback != g.primary {
		slog.Warn("primary provider failed, trying fallback",
			"primary", g.primary,
			"fallback", g.fallback,
			"error", err,
		)
		req.Model = g.fallbackModel
		return g.completeWithRetry(ctx, g.fallback, req)
	}
	return resp, err
}

func (g *Gateway) completeWithRetry(ctx context.Context, providerName string, req CompletionRequest) (*CompletionResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			slog.Debug("retrying LLM call", "provider", providerName, "attempt", attempt)
		}

		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", providerName, lastErr)
}
