package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/resilience"
)

// Service generates character responses through the active provider.
//
// GenerateResponse always returns a display-ready string: provider-side
// failures of any kind degrade to the character's fallback text instead of
// propagating. Callers never need per-provider error handling.
type Service struct {
	registry *Registry
	cfg      *config.Config
	log      *logger.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewService creates a response service on top of a provider registry
func NewService(registry *Registry, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		registry: registry,
		cfg:      cfg,
		log:      log,
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
}

// Registry exposes the provider administration surface
func (s *Service) Registry() *Registry {
	return s.registry
}

// GenerateResponse produces the character's next turn given the recent
// conversation history, oldest first.
//
// The call never returns an error for provider-side failures: outages,
// timeouts, error statuses and empty content all degrade to the
// character's fallback_response (or a generic in-character apology). A
// single attempt is made per turn; there are no automatic retries.
func (s *Service) GenerateResponse(ctx context.Context, character *models.Character, history []models.Message) string {
	history = TruncateHistory(history, s.cfg.AI.TokenBudget)

	// First turn after the character's greeting: nothing to answer yet,
	// so no provider call is made.
	if _, ok := LastUserMessage(history); !ok {
		greetingShortCircuits.Inc()
		return s.greeting(character)
	}

	providerName, err := s.registry.ActiveProvider(ctx)
	if err != nil {
		s.log.LogError(err, "Failed to resolve active AI provider", "character", character.Name)
		return s.fallback(character)
	}

	provider, err := s.registry.Provider(providerName)
	if err != nil {
		s.log.LogError(err, "Failed to construct AI provider",
			"provider", providerName,
			"character", character.Name,
		)
		return s.fallback(character)
	}

	providerRequests.WithLabelValues(providerName).Inc()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AI.RequestTimeout)
	defer cancel()

	var response string
	execErr := s.breaker(providerName).Execute(func() error {
		text, genErr := provider.GenerateResponse(ctx, character, history)
		if genErr != nil {
			return genErr
		}
		response = text
		return nil
	})

	if execErr != nil {
		providerFailures.WithLabelValues(providerName, failureReason(execErr)).Inc()
		s.log.LogError(execErr, "AI provider call failed",
			"provider", providerName,
			"character", character.Name,
		)
		return s.fallback(character)
	}

	return response
}

// greeting returns the character's configured greeting, or a generic one
// built from the name.
func (s *Service) greeting(character *models.Character) string {
	if character.GreetingMessage != "" {
		return character.GreetingMessage
	}
	return fmt.Sprintf("Hi! I'm %s.", character.Name)
}

// fallback returns the character's pre-authored fallback line, or a short
// in-character-flavored apology when none is configured.
func (s *Service) fallback(character *models.Character) string {
	fallbackResponses.Inc()
	if character.FallbackResponse != "" {
		return character.FallbackResponse
	}
	return fmt.Sprintf("(OOC: Sorry, I encountered an error trying to respond as %s.)", character.Name)
}

func (s *Service) breaker(providerName string) *resilience.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[providerName]
	if !ok {
		cb = resilience.NewCircuitBreaker(
			resilience.DefaultCircuitBreakerConfig("ai-provider-"+providerName),
			s.log,
		)
		s.breakers[providerName] = cb
	}
	return cb
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
