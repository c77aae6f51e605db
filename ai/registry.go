package ai

import (
	"context"
	"fmt"
	"sync"

	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/logger"
)

// ConfigStore persists the active provider name. The row is the source of
// truth; the registry's in-memory state is derived from it and invalidated
// on change.
type ConfigStore interface {
	// GetActiveProviderName returns the persisted name, or "" when no
	// config row exists yet.
	GetActiveProviderName(ctx context.Context) (string, error)
	// SetActiveProviderName upserts the persisted name.
	SetActiveProviderName(ctx context.Context, name string) error
}

// Registry maps provider names to lazily constructed client instances and
// tracks which provider is active. Safe for concurrent use.
type Registry struct {
	cfg   *config.Config
	store ConfigStore
	log   *logger.Logger

	mu        sync.Mutex
	instances map[string]Provider
}

// NewRegistry creates a provider registry backed by the given config store
func NewRegistry(cfg *config.Config, store ConfigStore, log *logger.Logger) *Registry {
	return &Registry{
		cfg:       cfg,
		store:     store,
		log:       log,
		instances: make(map[string]Provider),
	}
}

// AvailableProviders returns every supported provider whose credentials
// are present. Pure function of configuration; no network calls.
func (r *Registry) AvailableProviders() []string {
	available := make([]string, 0, len(SupportedProviders))
	for _, name := range SupportedProviders {
		if r.apiKeyFor(name) != "" {
			available = append(available, name)
		}
	}
	return available
}

// ActiveProvider resolves the persisted active provider name. When the
// stored name is missing or unsupported, the persisted config is reset to
// the default and that default is returned. The self-healing write is
// idempotent; concurrent callers settle on last-writer-wins.
func (r *Registry) ActiveProvider(ctx context.Context) (string, error) {
	name, err := r.store.GetActiveProviderName(ctx)
	if err != nil {
		return "", fmt.Errorf("read active provider: %w", err)
	}

	if name != "" && IsSupported(name) {
		return name, nil
	}

	fallback := r.defaultProvider()
	r.log.Warn("Persisted provider name invalid, resetting to default",
		"stored", name,
		"default", fallback,
	)

	if err := r.store.SetActiveProviderName(ctx, fallback); err != nil {
		return "", fmt.Errorf("reset active provider: %w", err)
	}

	return fallback, nil
}

// SetActiveProvider validates and persists a new active provider name,
// then drops cached client instances so the next call reconstructs them.
// Fails with ErrUnsupportedProvider for unknown names and
// ErrProviderUnavailable for supported names without credentials; in both
// cases persisted state is untouched.
func (r *Registry) SetActiveProvider(ctx context.Context, name string) error {
	if !IsSupported(name) {
		return fmt.Errorf("%q: %w", name, ErrUnsupportedProvider)
	}
	if r.apiKeyFor(name) == "" {
		return fmt.Errorf("%q: %w", name, ErrProviderUnavailable)
	}

	if err := r.store.SetActiveProviderName(ctx, name); err != nil {
		return fmt.Errorf("persist active provider: %w", err)
	}

	r.mu.Lock()
	r.instances = make(map[string]Provider)
	r.mu.Unlock()

	r.log.Info("Active AI provider changed", "provider", name)
	return nil
}

// Provider returns the client instance for a provider name, constructing
// and caching it on first use.
func (r *Registry) Provider(name string) (Provider, error) {
	if !IsSupported(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrUnsupportedProvider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if instance, ok := r.instances[name]; ok {
		return instance, nil
	}

	instance, err := r.build(name)
	if err != nil {
		return nil, err
	}

	r.instances[name] = instance
	return instance, nil
}

func (r *Registry) build(name string) (Provider, error) {
	ai := r.cfg.AI

	switch name {
	case ProviderGemini:
		return NewGeminiClient(ai.GeminiAPIKey, ai.GeminiBaseURL, ai.RequestTimeout, r.log)

	case ProviderOpenAI:
		baseURL := ai.OpenAIBaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewChatCompletionClient(ChatCompletionConfig{
			ProviderName: ProviderOpenAI,
			BaseURL:      baseURL,
			Model:        "gpt-4o-mini",
			APIKey:       ai.OpenAIAPIKey,
			Timeout:      ai.RequestTimeout,
		}, r.log)

	case ProviderClaude:
		return NewClaudeClient(ai.ClaudeAPIKey, ai.ClaudeBaseURL, ai.RequestTimeout, r.log)

	case ProviderOpenRouterQwen:
		return r.buildOpenRouter(ProviderOpenRouterQwen, "qwen/qwen3-30b-a3b:free")

	case ProviderOpenRouterLlama:
		return r.buildOpenRouter(ProviderOpenRouterLlama, "meta-llama/llama-3.3-70b-instruct:free")
	}

	return nil, fmt.Errorf("%q: %w", name, ErrUnsupportedProvider)
}

func (r *Registry) buildOpenRouter(providerName, model string) (Provider, error) {
	ai := r.cfg.AI

	baseURL := ai.OpenRouterBaseURL
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	return NewChatCompletionClient(ChatCompletionConfig{
		ProviderName: providerName,
		BaseURL:      baseURL,
		Model:        model,
		APIKey:       ai.OpenRouterAPIKey,
		Timeout:      ai.RequestTimeout,
	}, r.log)
}

func (r *Registry) apiKeyFor(name string) string {
	switch name {
	case ProviderGemini:
		return r.cfg.AI.GeminiAPIKey
	case ProviderOpenAI:
		return r.cfg.AI.OpenAIAPIKey
	case ProviderClaude:
		return r.cfg.AI.ClaudeAPIKey
	case ProviderOpenRouterQwen, ProviderOpenRouterLlama:
		return r.cfg.AI.OpenRouterAPIKey
	}
	return ""
}

func (r *Registry) defaultProvider() string {
	if IsSupported(r.cfg.AI.DefaultProvider) {
		return r.cfg.AI.DefaultProvider
	}
	return ProviderGemini
}
