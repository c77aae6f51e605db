package service

import (
	"context"
	"errors"
	"time"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/pkg/logger"

	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotConversationOwner = errors.New("conversation belongs to another user")
)

// ConversationService handles conversations, messages and the AI exchange
// flow.
type ConversationService struct {
	db           *gorm.DB
	characters   *CharacterService
	ai           *ai.Service
	historyLimit int
	log          *logger.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(db *gorm.DB, characters *CharacterService, aiService *ai.Service, historyLimit int, log *logger.Logger) *ConversationService {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ConversationService{
		db:           db,
		characters:   characters,
		ai:           aiService,
		historyLimit: historyLimit,
		log:          log,
	}
}

// StartConversation opens a conversation with a conversable character. The
// character's greeting, when present, is seeded as the first AI message.
func (s *ConversationService) StartConversation(ctx context.Context, userID, characterID uint) (*models.Conversation, error) {
	character, err := s.characters.GetConversableCharacter(characterID, userID)
	if err != nil {
		return nil, err
	}

	conversation := &models.Conversation{
		UserID:      userID,
		CharacterID: characterID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}

		if character.GreetingMessage != "" {
			greeting := &models.Message{
				ConversationID: conversation.ID,
				Sender:         models.SenderAI,
				Content:        character.GreetingMessage,
				Timestamp:      time.Now(),
			}
			if err := tx.Create(greeting).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bumpCharacterPopularity(characterID)

	return conversation, nil
}

// GetConversation retrieves a conversation owned by the given user
func (s *ConversationService) GetConversation(id, userID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	result := s.db.First(&conversation, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, result.Error
	}

	if conversation.UserID != userID {
		return nil, ErrNotConversationOwner
	}

	return &conversation, nil
}

// ListConversations returns the user's conversations, most recently active
// first.
func (s *ConversationService) ListConversations(userID uint, limit, offset int) (*models.ConversationList, error) {
	query := s.db.Model(&models.Conversation{}).Where("user_id = ?", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	var conversations []models.Conversation
	err := query.Order("last_interaction_at DESC NULLS LAST").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	return &models.ConversationList{Data: conversations, Count: count}, nil
}

// ListMessages returns a conversation's messages, oldest first
func (s *ConversationService) ListMessages(conversationID, userID uint, limit, offset int) (*models.MessageList, error) {
	if _, err := s.GetConversation(conversationID, userID); err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	var messages []models.Message
	err := query.Order("timestamp ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return &models.MessageList{Data: messages, Count: count}, nil
}

// SendMessage runs one conversation turn: the user message is persisted,
// the recent history is fed to the AI service, and the AI reply is
// persisted and returned.
//
// AI-side failures never surface as errors here. The AI service degrades
// to the character's fallback text, so the returned message is always a
// real, stored message. Errors from this method are persistence failures
// only.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, userID uint, content string) (*models.Message, error) {
	conversation, err := s.GetConversation(conversationID, userID)
	if err != nil {
		return nil, err
	}

	character, err := s.characters.getCachedCharacter(conversation.CharacterID)
	if err != nil {
		return nil, err
	}

	userMessage := &models.Message{
		ConversationID: conversationID,
		Sender:         models.SenderUser,
		Content:        content,
		Timestamp:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(userMessage).Error; err != nil {
		return nil, err
	}

	history, err := s.recentHistory(conversationID)
	if err != nil {
		return nil, err
	}

	responseText := s.ai.GenerateResponse(ctx, character, history)

	aiMessage := &models.Message{
		ConversationID: conversationID,
		Sender:         models.SenderAI,
		Content:        responseText,
		Timestamp:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(aiMessage).Error; err != nil {
		return nil, err
	}

	s.touchLastInteraction(conversation)

	return aiMessage, nil
}

// touchLastInteraction bumps the conversation's recency sort key. Both
// messages are already stored at this point, so a failure only degrades
// list ordering; it is logged, not surfaced.
func (s *ConversationService) touchLastInteraction(conversation *models.Conversation) {
	now := time.Now()
	if err := s.db.Model(conversation).Update("last_interaction_at", &now).Error; err != nil {
		s.log.LogError(err, "Failed to update conversation recency",
			"conversationID", conversation.ID,
		)
	}
}

// bumpCharacterPopularity increments the popularity hint. The score is a
// ranking signal only, so failures are logged and the conversation start
// proceeds.
func (s *ConversationService) bumpCharacterPopularity(characterID uint) {
	if err := s.characters.BumpPopularity(characterID); err != nil {
		s.log.Warn("Failed to bump character popularity",
			"characterID", characterID,
			"error", err.Error(),
		)
	}
}

// DeleteConversation removes a conversation and its messages. Deleting a
// conversation that does not exist is a no-op.
func (s *ConversationService) DeleteConversation(id, userID uint) error {
	conversation, err := s.GetConversation(id, userID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return nil
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(conversation).Error
	})
}

// recentHistory loads the most recent messages for AI context, returned
// oldest first.
func (s *ConversationService) recentHistory(conversationID uint) ([]models.Message, error) {
	var recent []models.Message
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("timestamp DESC").
		Limit(s.historyLimit).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	return recent, nil
}
