// Package llm talks to language model providers and parses their replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/askql/internal/observe"
	"golang.org/x/time/rate"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// ErrNotConfigured is returned by New when no API key is set.
var ErrNotConfigured = errors.New("language model is not configured")

// Provider completes a single system + user prompt.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
	Model() string
}

// Config selects and tunes a provider.
type Config struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	MaxRetries        int
	MaxTokens         int64
	RequestsPerSecond float64
	Burst             int
}

// Compile-time interface compliance checks.
var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*AnthropicProvider)(nil)
	_ Provider = (*limitedProvider)(nil)
	_ Provider = (*instrumentedProvider)(nil)
)

// New builds the configured provider, rate-limited and instrumented.
// It returns ErrNotConfigured when cfg has no API key.
func New(cfg Config, logger *slog.Logger, metrics *observe.Metrics) (Provider, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	var p Provider
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		p = NewOpenAIProvider(cfg)
	case ProviderAnthropic:
		p = NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (expected %q or %q)", cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}

	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		p = &limitedProvider{Provider: p, limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)}
	}
	return &instrumentedProvider{Provider: p, logger: logger, metrics: metrics}, nil
}

// limitedProvider waits for a rate limiter token before every call.
type limitedProvider struct {
	Provider
	limiter *rate.Limiter
}

func (l *limitedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}
	return l.Provider.Complete(ctx, system, user)
}

// instrumentedProvider logs and counts every call.
type instrumentedProvider struct {
	Provider
	logger  *slog.Logger
	metrics *observe.Metrics
}

func (i *instrumentedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := i.Provider.Complete(ctx, system, user)
	if err != nil {
		i.metrics.ModelCall(i.Name(), "error")
		i.logger.Warn("model call failed",
			slog.String("provider", i.Name()), slog.String("model", i.Model()),
			slog.Duration("elapsed", time.Since(start)), slog.String("error", err.Error()))
		return "", err
	}
	i.metrics.ModelCall(i.Name(), "ok")
	i.logger.Debug("model call completed",
		slog.String("provider", i.Name()), slog.String("model", i.Model()),
		slog.Duration("elapsed", time.Since(start)), slog.Int("chars", len(out)))
	return out, nil
}
