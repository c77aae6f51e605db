package models

import (
	"time"
)

// MessageSender identifies which side of a conversation produced a message.
type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderAI   MessageSender = "ai"
)

// Conversation is a chat between one user and one character. It is owned
// exclusively by its user; deleting it cascades to its messages.
type Conversation struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"user_id" gorm:"not null;index"`
	CharacterID       uint       `json:"character_id" gorm:"not null;index"`
	CreatedAt         time.Time  `json:"created_at"`
	LastInteractionAt *time.Time `json:"last_interaction_at" gorm:"index"`

	Messages []Message `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Message is a single turn in a conversation. Ordering is by timestamp
// ascending; the AI context window is the most recent N messages.
type Message struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	ConversationID uint          `json:"conversation_id" gorm:"not null;index"`
	Sender         MessageSender `json:"sender" gorm:"not null"`
	Content        string        `json:"content" gorm:"type:text;not null"`
	Timestamp      time.Time     `json:"timestamp" gorm:"index"`
}

// ProviderConfig is the singleton row (id=1) naming the active AI provider.
// It is created lazily on first read and updated by admin action.
type ProviderConfig struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	ActiveProviderName string    `json:"active_provider_name" gorm:"not null"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProviderConfigID is the fixed primary key of the singleton row.
const ProviderConfigID uint = 1

// StartConversationRequest opens a conversation with an approved character.
type StartConversationRequest struct {
	CharacterID uint `json:"character_id" binding:"required"`
}

// SendMessageRequest is a user message posted to a conversation.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// ConversationList is the paginated list envelope for conversations.
type ConversationList struct {
	Data  []Conversation `json:"data"`
	Count int64          `json:"count"`
}

// MessageList is the paginated list envelope for messages.
type MessageList struct {
	Data  []Message `json:"data"`
	Count int64     `json:"count"`
}
