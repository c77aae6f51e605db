package api

import (
	"net/http"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CharacterHandler handles user-facing character endpoints
type CharacterHandler struct {
	service *service.CharacterService
	logger  *logger.Logger
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(service *service.CharacterService, logger *logger.Logger) *CharacterHandler {
	return &CharacterHandler{service: service, logger: logger}
}

// SubmitCharacter accepts a new character submission. The character enters
// the moderation queue as pending.
func (h *CharacterHandler) SubmitCharacter(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.SubmitCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error binding JSON for character submission", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	character, err := h.service.SubmitCharacter(userID, &req)
	if err != nil {
		h.logger.Error("Error submitting character", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit character"})
		return
	}

	c.JSON(http.StatusCreated, character)
}

// GetCharacter returns a single character. Non-approved characters are
// only visible to their creator.
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	character, err := h.service.GetCharacter(id)
	if err != nil {
		switch err {
		case service.ErrCharacterNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
		default:
			h.logger.Error("Error getting character", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve character"})
		}
		return
	}

	if !character.IsApproved() {
		userID, _ := currentUserID(c)
		if character.CreatorID != userID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
	}

	c.JSON(http.StatusOK, character)
}

// ListCharacters returns approved public characters with optional search,
// category filter, sort and pagination.
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	opts := service.CharacterListOptions{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}

	list, err := h.service.ListPublicCharacters(opts)
	if err != nil {
		h.logger.Error("Error listing characters", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list characters"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// ListCategories returns the distinct categories of approved characters
func (h *CharacterHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories()
	if err != nil {
		h.logger.Error("Error listing categories", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListMyCharacters returns the authenticated user's own submissions in any
// moderation state.
func (h *CharacterHandler) ListMyCharacters(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	characters, err := h.service.ListCharactersByCreator(userID)
	if err != nil {
		h.logger.Error("Error listing own characters", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list characters"})
		return
	}

	c.JSON(http.StatusOK, characters)
}

// UpdateCharacter applies owner edits to a character
func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error binding JSON for character update", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	character, err := h.service.UpdateCharacter(id, userID, &req)
	if err != nil {
		switch err {
		case service.ErrCharacterNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
		case service.ErrNotCharacterOwner:
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own characters"})
		default:
			h.logger.Error("Error updating character", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update character"})
		}
		return
	}

	c.JSON(http.StatusOK, character)
}

// DeleteCharacter removes one of the user's own characters
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	character, err := h.service.GetCharacter(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
		return
	}
	if character.CreatorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own characters"})
		return
	}

	if err := h.service.DeleteCharacter(id); err != nil {
		h.logger.Error("Error deleting character", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete character"})
		return
	}

	c.Status(http.StatusNoContent)
}
