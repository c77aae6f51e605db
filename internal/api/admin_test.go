package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/logger"
)

// memConfigStore is an in-memory provider config store for handler tests.
type memConfigStore struct {
	name   string
	writes int
}

func (s *memConfigStore) GetActiveProviderName(ctx context.Context) (string, error) {
	return s.name, nil
}

func (s *memConfigStore) SetActiveProviderName(ctx context.Context, name string) error {
	s.name = name
	s.writes++
	return nil
}

func providerTestRouter(t *testing.T, cfg *config.Config, store *memConfigStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logConfig := logger.DefaultConfig()
	logConfig.Level = "error"
	log := logger.New(logConfig)

	registry := ai.NewRegistry(cfg, store, log)
	aiService := ai.NewService(registry, cfg, log)
	handler := NewAdminHandler(nil, aiService, log)

	r := gin.New()
	r.GET("/admin/config/ai-provider", handler.GetProviderConfig)
	r.PUT("/admin/config/ai-provider", handler.SetActiveProvider)
	return r
}

func providerTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.DefaultProvider = ai.ProviderGemini
	cfg.AI.RequestTimeout = 30 * time.Second
	cfg.AI.GeminiAPIKey = "g-key"
	return cfg
}

func TestGetProviderConfig(t *testing.T) {
	store := &memConfigStore{name: ai.ProviderGemini}
	r := providerTestRouter(t, providerTestConfig(), store)

	req, _ := http.NewRequest(http.MethodGet, "/admin/config/ai-provider", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ActiveProvider     string   `json:"active_provider"`
		AvailableProviders []string `json:"available_providers"`
		SupportedProviders []string `json:"supported_providers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, ai.ProviderGemini, body.ActiveProvider)
	assert.Equal(t, []string{ai.ProviderGemini}, body.AvailableProviders)
	assert.ElementsMatch(t, ai.SupportedProviders, body.SupportedProviders)
}

func TestGetProviderConfigHealsMissingRow(t *testing.T) {
	store := &memConfigStore{}
	r := providerTestRouter(t, providerTestConfig(), store)

	req, _ := http.NewRequest(http.MethodGet, "/admin/config/ai-provider", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ai.ProviderGemini, store.name, "missing config heals to the default provider")
}

func TestSetActiveProviderUnknownName(t *testing.T) {
	store := &memConfigStore{name: ai.ProviderGemini}
	r := providerTestRouter(t, providerTestConfig(), store)

	req, _ := http.NewRequest(http.MethodPut, "/admin/config/ai-provider",
		strings.NewReader(`{"provider":"nonexistent"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ai.ProviderGemini, store.name)
	assert.Zero(t, store.writes, "rejected switches must not touch persisted state")
}

func TestSetActiveProviderWithoutCredentials(t *testing.T) {
	store := &memConfigStore{name: ai.ProviderGemini}
	r := providerTestRouter(t, providerTestConfig(), store)

	req, _ := http.NewRequest(http.MethodPut, "/admin/config/ai-provider",
		strings.NewReader(`{"provider":"claude"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ai.ProviderGemini, store.name)
	assert.Zero(t, store.writes)
}

func TestSetActiveProviderSuccess(t *testing.T) {
	cfg := providerTestConfig()
	cfg.AI.ClaudeAPIKey = "c-key"
	store := &memConfigStore{name: ai.ProviderGemini}
	r := providerTestRouter(t, cfg, store)

	req, _ := http.NewRequest(http.MethodPut, "/admin/config/ai-provider",
		strings.NewReader(`{"provider":"claude"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ai.ProviderClaude, store.name)
	assert.Contains(t, w.Body.String(), `"active_provider":"claude"`)
}

func TestSetActiveProviderRequiresBody(t *testing.T) {
	store := &memConfigStore{name: ai.ProviderGemini}
	r := providerTestRouter(t, providerTestConfig(), store)

	req, _ := http.NewRequest(http.MethodPut, "/admin/config/ai-provider",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
