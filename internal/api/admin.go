package api

import (
	"errors"
	"net/http"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin-only moderation and provider configuration
// endpoints.
type AdminHandler struct {
	characters *service.CharacterService
	aiService  *ai.Service
	logger     *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(characters *service.CharacterService, aiService *ai.Service, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		characters: characters,
		aiService:  aiService,
		logger:     logger,
	}
}

// ListCharacters returns every character for review, optionally filtered
// by moderation status via ?status=.
func (h *AdminHandler) ListCharacters(c *gin.Context) {
	status := models.CharacterStatus(c.Query("status"))
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter: " + string(status)})
		return
	}

	characters, err := h.characters.ListAllCharacters(status)
	if err != nil {
		h.logger.Error("Error listing characters for admin", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list characters"})
		return
	}

	c.JSON(http.StatusOK, characters)
}

// ListPendingCharacters returns the moderation queue, oldest first
func (h *AdminHandler) ListPendingCharacters(c *gin.Context) {
	characters, err := h.characters.ListPendingCharacters()
	if err != nil {
		h.logger.Error("Error listing pending characters", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending characters"})
		return
	}

	c.JSON(http.StatusOK, characters)
}

// ApproveCharacter approves a pending character
func (h *AdminHandler) ApproveCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	character, err := h.characters.ApproveCharacter(id)
	if err != nil {
		h.respondModerationError(c, err)
		return
	}

	h.logger.Info("Character approved", "characterID", character.ID, "name", character.Name)
	c.JSON(http.StatusOK, character)
}

// RejectCharacter rejects a pending character with optional feedback for
// the creator.
func (h *AdminHandler) RejectCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	var req struct {
		Feedback string `json:"feedback"`
	}
	// Body is optional for rejections
	_ = c.ShouldBindJSON(&req)

	character, err := h.characters.RejectCharacter(id, req.Feedback)
	if err != nil {
		h.respondModerationError(c, err)
		return
	}

	h.logger.Info("Character rejected", "characterID", character.ID, "name", character.Name)
	c.JSON(http.StatusOK, character)
}

// UpdateCharacter applies an admin edit, including moderation fields
func (h *AdminHandler) UpdateCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	var req models.AdminUpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error binding JSON for admin character update", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	character, err := h.characters.AdminUpdateCharacter(id, &req)
	if err != nil {
		h.respondModerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}

// DeleteCharacter removes any character, regardless of owner
func (h *AdminHandler) DeleteCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	if err := h.characters.DeleteCharacter(id); err != nil {
		if errors.Is(err, service.ErrCharacterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
		h.logger.Error("Error deleting character", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete character"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetProviderConfig returns the available providers and the currently
// active one.
func (h *AdminHandler) GetProviderConfig(c *gin.Context) {
	registry := h.aiService.Registry()

	active, err := registry.ActiveProvider(c.Request.Context())
	if err != nil {
		h.logger.Error("Error resolving active provider", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read provider configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active_provider":     active,
		"available_providers": registry.AvailableProviders(),
		"supported_providers": ai.SupportedProviders,
	})
}

// SetActiveProvider switches the system-wide active AI provider
func (h *AdminHandler) SetActiveProvider(c *gin.Context) {
	var req struct {
		Provider string `json:"provider" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	err := h.aiService.Registry().SetActiveProvider(c.Request.Context(), req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrUnsupportedProvider):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown provider: " + req.Provider})
		case errors.Is(err, ai.ErrProviderUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "Provider has no credentials configured: " + req.Provider})
		default:
			h.logger.Error("Error setting active provider", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update provider configuration"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_provider": req.Provider})
}

func (h *AdminHandler) respondModerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCharacterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Character is not pending moderation"})
	default:
		h.logger.Error("Moderation operation failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Moderation operation failed"})
	}
}
