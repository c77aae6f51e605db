package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/internal/models"
)

// newTestService wires a Service at an OpenAI-compatible test server and
// returns the request hit counter.
func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.AI.OpenAIAPIKey = "test-key"
	cfg.AI.OpenAIBaseURL = server.URL
	cfg.AI.RequestTimeout = 500 * time.Millisecond

	registry := NewRegistry(cfg, &memConfigStore{name: ProviderOpenAI}, testLogger())
	return NewService(registry, cfg, testLogger()), &hits
}

func completionHandler(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}
}

func TestGenerateResponseReturnsProviderText(t *testing.T) {
	service, hits := newTestService(t, completionHandler("The stew is cold."))

	text := service.GenerateResponse(context.Background(), testCharacter(), testHistory())

	assert.Equal(t, "The stew is cold.", text)
	assert.EqualValues(t, 1, hits.Load())
}

func TestGenerateResponseGreetsWithoutProviderCall(t *testing.T) {
	service, hits := newTestService(t, completionHandler("never returned"))

	character := &models.Character{
		Name:            "Nova",
		GreetingMessage: "Greetings, traveler! Nova at your service.",
	}
	history := []models.Message{
		{Sender: models.SenderAI, Content: "Greetings, traveler! Nova at your service."},
	}

	text := service.GenerateResponse(context.Background(), character, history)

	assert.Equal(t, "Greetings, traveler! Nova at your service.", text)
	assert.EqualValues(t, 0, hits.Load(), "greeting must not reach the provider")
}

func TestGenerateResponseGreetsOnEmptyHistory(t *testing.T) {
	service, hits := newTestService(t, completionHandler("never returned"))

	text := service.GenerateResponse(context.Background(), &models.Character{Name: "Nova"}, nil)

	assert.Equal(t, "Hi! I'm Nova.", text)
	assert.EqualValues(t, 0, hits.Load())
}

func TestGenerateResponseGreetsWithoutAnyProviderConfigured(t *testing.T) {
	// No credentials at all: the greeting path must still work because it
	// never resolves a provider.
	cfg := testConfig()
	registry := NewRegistry(cfg, &memConfigStore{}, testLogger())
	service := NewService(registry, cfg, testLogger())

	text := service.GenerateResponse(context.Background(), &models.Character{Name: "Nova"}, nil)

	assert.Equal(t, "Hi! I'm Nova.", text)
}

func TestGenerateResponseFallsBackOnTimeout(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})

	text := service.GenerateResponse(context.Background(), testCharacter(), testHistory())

	assert.Equal(t, "Rex looks confused.", text)
}

func TestGenerateResponseFallsBackOnErrorStatus(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	text := service.GenerateResponse(context.Background(), testCharacter(), testHistory())

	assert.Equal(t, "Rex looks confused.", text)
}

func TestGenerateResponseFallsBackOnEmptyContent(t *testing.T) {
	service, _ := newTestService(t, completionHandler("   "))

	text := service.GenerateResponse(context.Background(), testCharacter(), testHistory())

	assert.Equal(t, "Rex looks confused.", text)
}

func TestGenerateResponseGenericFallbackMentionsName(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	character := &models.Character{Name: "Rex"}
	text := service.GenerateResponse(context.Background(), character, testHistory())

	assert.NotEmpty(t, text)
	assert.Contains(t, text, "Rex")
	assert.Equal(t, "(OOC: Sorry, I encountered an error trying to respond as Rex.)", text)
}

func TestGenerateResponseFallsBackOnStoreFailure(t *testing.T) {
	cfg := testConfig()
	store := &memConfigStore{getErr: errors.New("connection refused")}
	registry := NewRegistry(cfg, store, testLogger())
	service := NewService(registry, cfg, testLogger())

	text := service.GenerateResponse(context.Background(), testCharacter(), testHistory())

	assert.Equal(t, "Rex looks confused.", text)
}

func TestGenerateResponseTruncatesLongHistories(t *testing.T) {
	var captured chatCompletionRequest
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		completionHandler("Short answer.")(w, r)
	})

	history := alternatingHistory(60, 1000) // 15000 estimated tokens

	text := service.GenerateResponse(context.Background(), testCharacter(), history)

	assert.Equal(t, "Short answer.", text)
	// system prompt + truncated history; strictly fewer turns than sent
	assert.Less(t, len(captured.Messages), 61)
	assert.Greater(t, len(captured.Messages), 1)
}
