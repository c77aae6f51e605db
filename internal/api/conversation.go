package api

import (
	"errors"
	"net/http"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ConversationHandler handles conversation and message endpoints
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(service *service.ConversationService, logger *logger.Logger) *ConversationHandler {
	return &ConversationHandler{service: service, logger: logger}
}

// StartConversation opens a new conversation with an approved character
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conversation, err := h.service.StartConversation(c.Request.Context(), userID, req.CharacterID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCharacterNotFound),
			errors.Is(err, service.ErrCharacterNotApproved):
			c.JSON(http.StatusNotFound, gin.H{"error": "Approved character not found"})
		default:
			h.logger.Error("Error starting conversation", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start conversation"})
		}
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

// ListConversations returns the user's conversations, most recently
// active first.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	list, err := h.service.ListConversations(userID, queryInt(c, "limit", 100), queryInt(c, "offset", 0))
	if err != nil {
		h.logger.Error("Error listing conversations", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// ListMessages returns a conversation's messages, oldest first
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	list, err := h.service.ListMessages(id, userID, queryInt(c, "limit", 100), queryInt(c, "offset", 0))
	if err != nil {
		h.respondConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// SendMessage posts a user message and returns the AI reply. AI-side
// failures degrade to the character's fallback text inside the service;
// a 5xx from this endpoint means persistence failed, not the provider.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	aiMessage, err := h.service.SendMessage(c.Request.Context(), id, userID, req.Content)
	if err != nil {
		h.respondConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, aiMessage)
}

// DeleteConversation removes a conversation and its messages. Deleting an
// already-absent conversation succeeds.
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	if err := h.service.DeleteConversation(id, userID); err != nil {
		h.respondConversationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) respondConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
	case errors.Is(err, service.ErrNotConversationOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this conversation"})
	case errors.Is(err, service.ErrCharacterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Character for conversation not found"})
	default:
		h.logger.Error("Conversation operation failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Conversation operation failed"})
	}
}
