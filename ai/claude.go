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

const (
	defaultClaudeBaseURL   = "https://api.anthropic.com/v1"
	defaultClaudeModel     = "claude-3-5-haiku-latest"
	claudeAPIVersion       = "2023-06-01"
	claudeDefaultMaxTokens = 1024
)

// ClaudeClient calls the Anthropic Messages API. It differs from the
// OpenAI-compatible shape: the system prompt is a top-level field, auth is
// an x-api-key header and max_tokens is mandatory.
type ClaudeClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *logger.Logger
}

// NewClaudeClient constructs a Claude client. Fails with
// ErrMissingCredentials when no API key is configured.
func NewClaudeClient(apiKey, baseURL string, timeout time.Duration, log *logger.Logger) (*ClaudeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", ProviderClaude, ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ClaudeClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   defaultClaudeModel,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// Name returns the registry key of this client
func (c *ClaudeClient) Name() string {
	return ProviderClaude
}

type claudeRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []ChatMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateResponse formats the character and history into the Anthropic
// Messages shape and returns the model's reply text.
func (c *ClaudeClient) GenerateResponse(ctx context.Context, character *models.Character, history []models.Message) (string, error) {
	payload, err := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: claudeDefaultMaxTokens,
		System:    BuildSystemPrompt(character),
		Messages:  FormatHistory(history, "assistant"),
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Claude API returned error status", "status", resp.StatusCode)
		return "", fmt.Errorf("claude API returned status %d", resp.StatusCode)
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
