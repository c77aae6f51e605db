package ai

import (
	"context"
	"errors"

	"ai-character-chat/backend/internal/models"
)

// Common provider errors
var (
	// ErrMissingCredentials means a provider cannot be constructed because
	// its API key is not configured.
	ErrMissingCredentials = errors.New("missing provider credentials")
	// ErrUnsupportedProvider means the requested name is not in the
	// supported provider set.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrProviderUnavailable means the provider is supported but cannot be
	// used right now (no credentials).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrEmptyResponse means the provider returned success but no usable
	// content.
	ErrEmptyResponse = errors.New("provider returned empty response")
)

// Provider is a single AI text-generation vendor. Implementations format
// the character persona and conversation history into the vendor's wire
// shape, call the vendor API and return the raw response text.
//
// GenerateResponse returns the trimmed response text on success. Failures
// (transport errors, non-2xx statuses, empty content) are returned as
// errors; the response service above this layer converts them into
// display-ready fallback text.
type Provider interface {
	Name() string
	GenerateResponse(ctx context.Context, character *models.Character, history []models.Message) (string, error)
}

// Supported provider names
const (
	ProviderGemini          = "gemini"
	ProviderOpenAI          = "openai"
	ProviderClaude          = "claude"
	ProviderOpenRouterQwen  = "openrouter-qwen3"
	ProviderOpenRouterLlama = "openrouter-llama3"
)

// SupportedProviders lists every provider name the registry can construct,
// in preference order.
var SupportedProviders = []string{
	ProviderGemini,
	ProviderOpenAI,
	ProviderClaude,
	ProviderOpenRouterQwen,
	ProviderOpenRouterLlama,
}

// IsSupported reports whether name is a known provider key
func IsSupported(name string) bool {
	for _, p := range SupportedProviders {
		if p == name {
			return true
		}
	}
	return false
}
