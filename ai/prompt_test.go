package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/internal/models"
)

func TestBuildSystemPromptIsDeterministic(t *testing.T) {
	character := &models.Character{
		Name:              "Captain Vega",
		Description:       "A weathered starship captain.",
		Scenario:          "Aboard the freighter Morrow, three days from port.",
		PersonalityTraits: "gruff, loyal, superstitious",
		WritingStyle:      "short clipped sentences",
		Background:        "Thirty years hauling cargo through contested space.",
		KnowledgeScope:    "interstellar trade routes, ship maintenance",
		Quirks:            "taps the bulkhead twice before every jump",
		EmotionalRange:    "reserved, occasional dry humor",
		Language:          "Spanish",
	}

	first := BuildSystemPrompt(character)
	second := BuildSystemPrompt(character)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "You are Captain Vega. Respond as this character.\n"))
	assert.Contains(t, first, "Personality Traits: gruff, loyal, superstitious")
	assert.Contains(t, first, "Language: Respond in Spanish.")
}

func TestBuildSystemPromptSkipsEmptyFields(t *testing.T) {
	character := &models.Character{Name: "Minimal"}

	prompt := BuildSystemPrompt(character)

	for _, line := range strings.Split(prompt, "\n") {
		assert.False(t, strings.HasSuffix(line, ": "), "label-only line: %q", line)
		assert.NotEmpty(t, line)
	}
	assert.NotContains(t, prompt, "Description")
	assert.NotContains(t, prompt, "Quirks")
}

func TestBuildSystemPromptDefaultsToEnglish(t *testing.T) {
	prompt := BuildSystemPrompt(&models.Character{Name: "Minimal"})

	assert.Contains(t, prompt, "Respond in English.")
	assert.NotContains(t, prompt, "Language:")
}

func TestMapRole(t *testing.T) {
	assert.Equal(t, "user", MapRole(models.SenderUser, "assistant"))
	assert.Equal(t, "user", MapRole(models.SenderUser, "model"))
	assert.Equal(t, "assistant", MapRole(models.SenderAI, "assistant"))
	assert.Equal(t, "model", MapRole(models.SenderAI, "model"))
}

func TestFormatHistoryPreservesOrder(t *testing.T) {
	history := []models.Message{
		{Sender: models.SenderAI, Content: "Hello there."},
		{Sender: models.SenderUser, Content: "Hi, who are you?"},
		{Sender: models.SenderAI, Content: "Just a humble deckhand."},
	}

	formatted := FormatHistory(history, "assistant")

	require.Len(t, formatted, 3)
	assert.Equal(t, ChatMessage{Role: "assistant", Content: "Hello there."}, formatted[0])
	assert.Equal(t, ChatMessage{Role: "user", Content: "Hi, who are you?"}, formatted[1])
	assert.Equal(t, ChatMessage{Role: "assistant", Content: "Just a humble deckhand."}, formatted[2])
}

func TestEstimateTokens(t *testing.T) {
	history := []models.Message{
		{Content: strings.Repeat("a", 40)},
		{Content: strings.Repeat("b", 60)},
	}

	assert.Equal(t, 25, EstimateTokens(history))
	assert.Equal(t, 0, EstimateTokens(nil))
}

func TestTruncateHistoryUnderBudgetIsUntouched(t *testing.T) {
	history := alternatingHistory(10, 8)

	got := TruncateHistory(history, 1000)

	assert.Equal(t, history, got)
}

func TestTruncateHistoryKeepsRecentSuffix(t *testing.T) {
	// 60 alternating messages of 100 chars each: 1500 estimated tokens
	history := alternatingHistory(60, 100)

	got := TruncateHistory(history, 200)

	require.NotEmpty(t, got)
	assert.Less(t, len(got), 60)
	assert.Equal(t, history[59].Content, got[len(got)-1].Content)

	// Chronological order survives truncation
	for i := 1; i < len(got); i++ {
		assert.NotEqual(t, got[i-1].Sender, got[i].Sender)
	}
}

func TestTruncateHistoryNeverEmptiesInput(t *testing.T) {
	history := []models.Message{
		{Sender: models.SenderUser, Content: strings.Repeat("x", 10000)},
	}

	got := TruncateHistory(history, 1)

	require.Len(t, got, 1)
	assert.Equal(t, history[0].Content, got[0].Content)
}

func TestTruncateHistoryExtendsToLastUserMessage(t *testing.T) {
	// A single early user turn followed by a long run of AI messages: the
	// kept window must reach back to that user turn.
	history := make([]models.Message, 0, 20)
	history = append(history, models.Message{Sender: models.SenderUser, Content: strings.Repeat("u", 100)})
	for i := 0; i < 19; i++ {
		history = append(history, models.Message{Sender: models.SenderAI, Content: strings.Repeat("a", 100)})
	}

	got := TruncateHistory(history, 100)

	require.NotEmpty(t, got)
	assert.Equal(t, models.SenderUser, got[0].Sender)
	assert.Len(t, got, 20)
}

func TestTruncateHistoryZeroBudgetDisablesTruncation(t *testing.T) {
	history := alternatingHistory(60, 100)

	assert.Equal(t, history, TruncateHistory(history, 0))
	assert.Equal(t, history, TruncateHistory(history, -5))
}

func TestLastUserMessage(t *testing.T) {
	history := []models.Message{
		{Sender: models.SenderAI, Content: "greeting"},
		{Sender: models.SenderUser, Content: "first"},
		{Sender: models.SenderAI, Content: "reply"},
		{Sender: models.SenderUser, Content: "second"},
		{Sender: models.SenderAI, Content: "reply again"},
	}

	content, ok := LastUserMessage(history)
	require.True(t, ok)
	assert.Equal(t, "second", content)

	_, ok = LastUserMessage([]models.Message{{Sender: models.SenderAI, Content: "greeting"}})
	assert.False(t, ok)

	_, ok = LastUserMessage(nil)
	assert.False(t, ok)
}

// alternatingHistory builds user/AI alternating messages of a fixed content
// length, starting with a user turn.
func alternatingHistory(n, contentLen int) []models.Message {
	history := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		sender := models.SenderUser
		if i%2 == 1 {
			sender = models.SenderAI
		}
		history = append(history, models.Message{
			Sender:  sender,
			Content: strings.Repeat(string(rune('a'+i%26)), contentLen),
		})
	}
	return history
}
