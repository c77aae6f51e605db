package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/logger"
)

// memConfigStore is an in-memory ConfigStore recording every write.
type memConfigStore struct {
	name   string
	writes []string
	getErr error
	setErr error
}

func (s *memConfigStore) GetActiveProviderName(ctx context.Context) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.name, nil
}

func (s *memConfigStore) SetActiveProviderName(ctx context.Context, name string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.name = name
	s.writes = append(s.writes, name)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.DefaultProvider = ProviderGemini
	cfg.AI.HistoryLimit = 20
	cfg.AI.TokenBudget = 4000
	cfg.AI.RequestTimeout = 30 * time.Second
	return cfg
}

func testLogger() *logger.Logger {
	logConfig := logger.DefaultConfig()
	logConfig.Level = "error"
	return logger.New(logConfig)
}

func TestAvailableProvidersReflectsCredentials(t *testing.T) {
	cfg := testConfig()
	registry := NewRegistry(cfg, &memConfigStore{}, testLogger())

	assert.Empty(t, registry.AvailableProviders())

	cfg.AI.GeminiAPIKey = "g-key"
	cfg.AI.OpenRouterAPIKey = "or-key"

	available := registry.AvailableProviders()
	assert.ElementsMatch(t,
		[]string{ProviderGemini, ProviderOpenRouterQwen, ProviderOpenRouterLlama},
		available,
	)
}

func TestActiveProviderReturnsPersistedName(t *testing.T) {
	store := &memConfigStore{name: ProviderClaude}
	registry := NewRegistry(testConfig(), store, testLogger())

	name, err := registry.ActiveProvider(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, name)
	assert.Empty(t, store.writes, "a valid persisted name must not be rewritten")
}

func TestActiveProviderHealsMissingConfig(t *testing.T) {
	store := &memConfigStore{}
	registry := NewRegistry(testConfig(), store, testLogger())

	name, err := registry.ActiveProvider(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, name)
	assert.Equal(t, []string{ProviderGemini}, store.writes)
}

func TestActiveProviderHealsUnsupportedName(t *testing.T) {
	store := &memConfigStore{name: "decommissioned-vendor"}
	registry := NewRegistry(testConfig(), store, testLogger())

	name, err := registry.ActiveProvider(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, name)
	assert.Equal(t, ProviderGemini, store.name)
}

func TestActiveProviderPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")
	registry := NewRegistry(testConfig(), &memConfigStore{getErr: storeErr}, testLogger())

	_, err := registry.ActiveProvider(context.Background())

	assert.ErrorIs(t, err, storeErr)
}

func TestSetActiveProviderRejectsUnknownName(t *testing.T) {
	store := &memConfigStore{name: ProviderGemini}
	registry := NewRegistry(testConfig(), store, testLogger())

	err := registry.SetActiveProvider(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Equal(t, ProviderGemini, store.name)
	assert.Empty(t, store.writes)
}

func TestSetActiveProviderRejectsMissingCredentials(t *testing.T) {
	store := &memConfigStore{name: ProviderGemini}
	registry := NewRegistry(testConfig(), store, testLogger())

	err := registry.SetActiveProvider(context.Background(), ProviderOpenAI)

	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, ProviderGemini, store.name)
	assert.Empty(t, store.writes)
}

func TestSetActiveProviderPersistsValidName(t *testing.T) {
	cfg := testConfig()
	cfg.AI.ClaudeAPIKey = "c-key"
	store := &memConfigStore{name: ProviderGemini}
	registry := NewRegistry(cfg, store, testLogger())

	err := registry.SetActiveProvider(context.Background(), ProviderClaude)

	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, store.name)
}

func TestProviderInstancesAreCached(t *testing.T) {
	cfg := testConfig()
	cfg.AI.GeminiAPIKey = "g-key"
	registry := NewRegistry(cfg, &memConfigStore{}, testLogger())

	first, err := registry.Provider(ProviderGemini)
	require.NoError(t, err)
	second, err := registry.Provider(ProviderGemini)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestProviderFailsWithoutCredentials(t *testing.T) {
	registry := NewRegistry(testConfig(), &memConfigStore{}, testLogger())

	_, err := registry.Provider(ProviderGemini)

	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSetActiveProviderDropsCachedInstances(t *testing.T) {
	cfg := testConfig()
	cfg.AI.GeminiAPIKey = "g-key"
	registry := NewRegistry(cfg, &memConfigStore{}, testLogger())

	first, err := registry.Provider(ProviderGemini)
	require.NoError(t, err)

	require.NoError(t, registry.SetActiveProvider(context.Background(), ProviderGemini))

	second, err := registry.Provider(ProviderGemini)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
