package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/workbook/internal/logger"
)

// Option configures NewProvider.
type Option func(*factoryOptions)

type factoryOptions struct {
	recorder EventRecorder
	observer Observer
	log      *logger.Logger
}

// WithRecorder persists every call.
func WithRecorder(r EventRecorder) Option {
	return func(o *factoryOptions) { o.recorder = r }
}

// WithObserver reports every call, e.g. to metrics.
func WithObserver(fn Observer) Option {
	return func(o *factoryOptions) { o.observer = fn }
}

// WithLogger sets the logger for the provider stack.
func WithLogger(l *logger.Logger) Option {
	return func(o *factoryOptions) { o.log = l }
}

// NewProvider builds the configured backend wrapped as
// caller → timeout → retry → recording → backend.
func NewProvider(ctx context.Context, cfg Config, opts ...Option) (Provider, error) {
	o := factoryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.log).With("component", "llm", "provider", cfg.Provider)

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	recorded := WithRecording(base, cfg.Provider, o.recorder, o.observer, log)
	retried := WithRetry(recorded, cfg.Retry, log)
	log.Info("llm provider ready", "model", base.ModelID())
	return WithTimeout(retried, cfg.Timeout), nil
}
