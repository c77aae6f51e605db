package models

import (
	"time"
)

// CharacterStatus is the moderation state of a submitted character.
type CharacterStatus string

const (
	StatusPending  CharacterStatus = "pending"
	StatusApproved CharacterStatus = "approved"
	StatusRejected CharacterStatus = "rejected"
)

// Character represents a user-submitted persona. A character starts out
// pending and becomes conversable by other users only once an admin approves
// it.
type Character struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`

	// Persona fields fed into the AI system prompt.
	Scenario          string `json:"scenario" gorm:"type:text"`
	PersonalityTraits string `json:"personality_traits" gorm:"type:text"`
	WritingStyle      string `json:"writing_style" gorm:"type:text"`
	Background        string `json:"background" gorm:"type:text"`
	KnowledgeScope    string `json:"knowledge_scope" gorm:"type:text"`
	Quirks            string `json:"quirks" gorm:"type:text"`
	EmotionalRange    string `json:"emotional_range" gorm:"type:text"`
	Language          string `json:"language" gorm:"index"`

	// GreetingMessage seeds a new conversation and is returned without an API
	// call when the history holds no user turn yet. FallbackResponse is used
	// verbatim when the AI provider cannot produce output.
	GreetingMessage  string `json:"greeting_message" gorm:"type:text"`
	FallbackResponse string `json:"fallback_response" gorm:"type:text"`

	Category string `json:"category" gorm:"index"`
	Tags     string `json:"tags" gorm:"type:text"` // comma-separated
	VoiceID  string `json:"voice_id"`              // reserved for a future TTS integration

	PopularityScore int `json:"popularity_score" gorm:"default:0"`

	// Moderation fields (admin only).
	Status        CharacterStatus `json:"status" gorm:"default:pending;index"`
	IsPublic      bool            `json:"is_public" gorm:"default:true"`
	IsFeatured    bool            `json:"is_featured" gorm:"default:false"`
	AdminFeedback string          `json:"admin_feedback,omitempty" gorm:"type:text"`

	CreatorID uint      `json:"creator_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsApproved reports whether the character may be used in conversations by
// users other than its creator.
func (c *Character) IsApproved() bool {
	return c.Status == StatusApproved
}

// SubmitCharacterRequest is the payload for a user character submission.
// Moderation fields are deliberately absent; status is always forced to
// pending on create.
type SubmitCharacterRequest struct {
	Name              string `json:"name" binding:"required,max=100"`
	Description       string `json:"description"`
	ImageURL          string `json:"image_url"`
	Scenario          string `json:"scenario"`
	PersonalityTraits string `json:"personality_traits"`
	WritingStyle      string `json:"writing_style"`
	Background        string `json:"background"`
	KnowledgeScope    string `json:"knowledge_scope"`
	Quirks            string `json:"quirks"`
	EmotionalRange    string `json:"emotional_range"`
	Language          string `json:"language"`
	GreetingMessage   string `json:"greeting_message"`
	FallbackResponse  string `json:"fallback_response"`
	Category          string `json:"category"`
	Tags              string `json:"tags"`
	VoiceID           string `json:"voice_id"`
}

// UpdateCharacterRequest covers the content fields a character's owner may
// edit. Pointer fields distinguish "not sent" from "clear this field".
type UpdateCharacterRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	ImageURL          *string `json:"image_url"`
	Scenario          *string `json:"scenario"`
	PersonalityTraits *string `json:"personality_traits"`
	WritingStyle      *string `json:"writing_style"`
	Background        *string `json:"background"`
	KnowledgeScope    *string `json:"knowledge_scope"`
	Quirks            *string `json:"quirks"`
	EmotionalRange    *string `json:"emotional_range"`
	Language          *string `json:"language"`
	GreetingMessage   *string `json:"greeting_message"`
	FallbackResponse  *string `json:"fallback_response"`
	Category          *string `json:"category"`
	Tags              *string `json:"tags"`
	VoiceID           *string `json:"voice_id"`
}

// AdminUpdateCharacterRequest additionally exposes moderation fields.
type AdminUpdateCharacterRequest struct {
	UpdateCharacterRequest
	Status        *CharacterStatus `json:"status"`
	IsPublic      *bool            `json:"is_public"`
	IsFeatured    *bool            `json:"is_featured"`
	AdminFeedback *string          `json:"admin_feedback"`
}

// CharacterList is the paginated list envelope returned by list endpoints.
type CharacterList struct {
	Data  []Character `json:"data"`
	Count int64       `json:"count"`
}
