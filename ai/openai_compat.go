package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/pkg/logger"
)

// ChatCompletionConfig parameterizes an OpenAI-compatible chat-completions
// endpoint. OpenAI itself and every OpenRouter-hosted model share the same
// wire shape and differ only in base URL, model identifier and headers.
type ChatCompletionConfig struct {
	// ProviderName is the registry key this client is exposed under
	ProviderName string
	// BaseURL without trailing slash, e.g. "https://api.openai.com/v1"
	BaseURL string
	// Model identifier sent in the request payload
	Model string
	// APIKey used as a bearer token
	APIKey string
	// ExtraHeaders are added verbatim to every request
	ExtraHeaders map[string]string
	// Timeout bounds a single API call
	Timeout time.Duration
}

// ChatCompletionClient calls any OpenAI-compatible chat-completions API
type ChatCompletionClient struct {
	config ChatCompletionConfig
	client *http.Client
	log    *logger.Logger
}

// NewChatCompletionClient constructs a client for an OpenAI-compatible
// endpoint. Fails with ErrMissingCredentials when no API key is configured.
func NewChatCompletionClient(config ChatCompletionConfig, log *logger.Logger) (*ChatCompletionClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", config.ProviderName, ErrMissingCredentials)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &ChatCompletionClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    log,
	}, nil
}

// Name returns the registry key of this client
func (c *ChatCompletionClient) Name() string {
	return c.config.ProviderName
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateResponse formats the character and history into the
// chat-completions shape and returns the model's reply text.
func (c *ChatCompletionClient) GenerateResponse(ctx context.Context, character *models.Character, history []models.Message) (string, error) {
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: BuildSystemPrompt(character)})
	messages = append(messages, FormatHistory(history, "assistant")...)

	payload, err := json.Marshal(chatCompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	for k, v := range c.config.ExtraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", c.config.ProviderName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Chat completion API returned error status",
			"provider", c.config.ProviderName,
			"status", resp.StatusCode,
		)
		return "", fmt.Errorf("%s API returned status %d", c.config.ProviderName, resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
