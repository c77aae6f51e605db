package ai

import (
	"fmt"
	"strings"

	"ai-character-chat/backend/internal/models"
)

// BuildSystemPrompt renders a character persona into the instructional
// preamble sent to every provider. The transform is deterministic: the same
// character always yields byte-identical output. Empty fields are skipped
// entirely so the prompt never contains label-only lines.
func BuildSystemPrompt(character *models.Character) string {
	parts := make([]string, 0, 12)

	parts = append(parts, fmt.Sprintf("You are %s. Respond as this character.", character.Name))

	appendLabeled := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	appendLabeled("Description", character.Description)
	appendLabeled("Scenario", character.Scenario)
	appendLabeled("Personality Traits", character.PersonalityTraits)
	appendLabeled("Writing Style", character.WritingStyle)
	appendLabeled("Background", character.Background)
	appendLabeled("Knowledge Scope", character.KnowledgeScope)
	appendLabeled("Quirks", character.Quirks)
	appendLabeled("Emotional Range", character.EmotionalRange)

	if character.Language != "" {
		parts = append(parts, fmt.Sprintf("Language: Respond in %s.", character.Language))
	} else {
		parts = append(parts, "Respond in English.")
	}

	parts = append(parts,
		"Maintain character consistency throughout the conversation.",
		"Keep responses concise and engaging unless the user prompts for more detail.",
	)

	return strings.Join(parts, "\n")
}

// ChatMessage is a provider-neutral (role, content) pair
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MapRole converts a message sender to the provider-specific role name.
// assistantRole is "assistant" for OpenAI-compatible APIs and "model" for
// Gemini; the user role is "user" everywhere.
func MapRole(sender models.MessageSender, assistantRole string) string {
	if sender == models.SenderAI {
		return assistantRole
	}
	return "user"
}

// FormatHistory maps ordered messages to (role, content) pairs, oldest
// first, using the given assistant role name.
func FormatHistory(history []models.Message, assistantRole string) []ChatMessage {
	formatted := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		formatted = append(formatted, ChatMessage{
			Role:    MapRole(msg.Sender, assistantRole),
			Content: msg.Content,
		})
	}
	return formatted
}

// EstimateTokens approximates the token count of a history as total
// characters divided by four. Coarse, but cheap and vendor-neutral.
func EstimateTokens(history []models.Message) int {
	total := 0
	for _, msg := range history {
		total += len(msg.Content)
	}
	return total / 4
}

// TruncateHistory applies a single-pass, best-effort truncation policy:
// when the estimated token count exceeds tokenBudget, only the most recent
// 75% of messages are retained, preserving chronological order. Non-empty
// input is never truncated to zero messages.
//
// If the retained window would contain no user message while the full
// history has one, the window is extended backward to the nearest
// preceding user message so the provider always sees the latest user turn.
func TruncateHistory(history []models.Message, tokenBudget int) []models.Message {
	if len(history) == 0 {
		return history
	}
	if tokenBudget <= 0 || EstimateTokens(history) <= tokenBudget {
		return history
	}

	// Drop the oldest quarter
	start := len(history) / 4
	if start >= len(history) {
		start = len(history) - 1
	}

	if !containsUserMessage(history[start:]) {
		for i := start - 1; i >= 0; i-- {
			if history[i].Sender == models.SenderUser {
				start = i
				break
			}
		}
	}

	return history[start:]
}

// LastUserMessage returns the most recent user-sent message content, or
// false when the history holds none.
func LastUserMessage(history []models.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == models.SenderUser {
			return history[i].Content, true
		}
	}
	return "", false
}

func containsUserMessage(history []models.Message) bool {
	for _, msg := range history {
		if msg.Sender == models.SenderUser {
			return true
		}
	}
	return false
}
