package service

import (
	"errors"
	"fmt"
	"strings"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/pkg/cache"

	"gorm.io/gorm"
)

var (
	ErrCharacterNotFound    = errors.New("character not found")
	ErrCharacterNotApproved = errors.New("character is not approved")
	ErrNotCharacterOwner    = errors.New("character belongs to another user")
	ErrInvalidTransition    = errors.New("character is not pending moderation")
)

// CharacterListOptions filters and orders public character listings
type CharacterListOptions struct {
	Search   string
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// CharacterService handles character submission, listing and moderation.
// Reads on the conversation hot path go through a short-lived in-memory
// cache; every mutation invalidates the entry.
type CharacterService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCharacterService creates a new character service
func NewCharacterService(db *gorm.DB, c *cache.Cache) *CharacterService {
	return &CharacterService{db: db, cache: c}
}

// SubmitCharacter stores a new character for moderation. Status is always
// forced to pending regardless of the request payload.
func (s *CharacterService) SubmitCharacter(creatorID uint, req *models.SubmitCharacterRequest) (*models.Character, error) {
	character := &models.Character{
		Name:              req.Name,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		Scenario:          req.Scenario,
		PersonalityTraits: req.PersonalityTraits,
		WritingStyle:      req.WritingStyle,
		Background:        req.Background,
		KnowledgeScope:    req.KnowledgeScope,
		Quirks:            req.Quirks,
		EmotionalRange:    req.EmotionalRange,
		Language:          req.Language,
		GreetingMessage:   req.GreetingMessage,
		FallbackResponse:  req.FallbackResponse,
		Category:          req.Category,
		Tags:              req.Tags,
		VoiceID:           req.VoiceID,
		Status:            models.StatusPending,
		IsPublic:          true,
		CreatorID:         creatorID,
	}

	if err := s.db.Create(character).Error; err != nil {
		return nil, err
	}

	return character, nil
}

// GetCharacter retrieves a character by ID
func (s *CharacterService) GetCharacter(id uint) (*models.Character, error) {
	var character models.Character
	result := s.db.First(&character, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, result.Error
	}
	return &character, nil
}

// GetConversableCharacter returns a character usable in conversations by
// the given user: approved public characters, or the user's own in any
// state. This runs on every message exchange, so the lookup is cached.
func (s *CharacterService) GetConversableCharacter(id, userID uint) (*models.Character, error) {
	character, err := s.getCachedCharacter(id)
	if err != nil {
		return nil, err
	}

	if character.CreatorID != userID && !character.IsApproved() {
		return nil, ErrCharacterNotApproved
	}

	return character, nil
}

func (s *CharacterService) getCachedCharacter(id uint) (*models.Character, error) {
	key := characterCacheKey(id)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if character, ok := cached.(models.Character); ok {
				copied := character
				return &copied, nil
			}
		}
	}

	character, err := s.GetCharacter(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, *character)
	}

	return character, nil
}

func (s *CharacterService) invalidate(id uint) {
	if s.cache != nil {
		s.cache.Delete(characterCacheKey(id))
	}
}

func characterCacheKey(id uint) string {
	return fmt.Sprintf("character:%d", id)
}

// ListPublicCharacters returns approved, public characters with optional
// search, category filter and ordering.
func (s *CharacterService) ListPublicCharacters(opts CharacterListOptions) (*models.CharacterList, error) {
	query := s.db.Model(&models.Character{}).
		Where("status = ?", models.StatusApproved).
		Where("is_public = ?", true)

	if opts.Search != "" {
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ? OR LOWER(personality_traits) LIKE ? OR LOWER(scenario) LIKE ?",
			pattern, pattern, pattern, pattern, pattern)
	}

	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}

	switch opts.Sort {
	case "most_popular", "highest_rated":
		query = query.Order("popularity_score DESC")
	case "oldest":
		query = query.Order("created_at ASC")
	case "name_asc":
		query = query.Order("name ASC")
	case "name_desc":
		query = query.Order("name DESC")
	default: // most_recent
		query = query.Order("created_at DESC")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var characters []models.Character
	if err := query.Find(&characters).Error; err != nil {
		return nil, err
	}

	return &models.CharacterList{Data: characters, Count: count}, nil
}

// ListCategories returns the distinct categories of approved public
// characters, alphabetically.
func (s *CharacterService) ListCategories() ([]string, error) {
	var categories []string
	err := s.db.Model(&models.Character{}).
		Where("status = ?", models.StatusApproved).
		Where("is_public = ?", true).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ListAllCharacters returns every character for admin review, optionally
// filtered by moderation status, newest first.
func (s *CharacterService) ListAllCharacters(status models.CharacterStatus) ([]models.Character, error) {
	query := s.db.Model(&models.Character{}).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var characters []models.Character
	if err := query.Find(&characters).Error; err != nil {
		return nil, err
	}
	return characters, nil
}

// ListCharactersByCreator returns every character submitted by a user,
// regardless of moderation state.
func (s *CharacterService) ListCharactersByCreator(creatorID uint) ([]models.Character, error) {
	var characters []models.Character
	result := s.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&characters)
	if result.Error != nil {
		return nil, result.Error
	}
	return characters, nil
}

// ListPendingCharacters returns characters awaiting moderation, oldest
// submission first.
func (s *CharacterService) ListPendingCharacters() ([]models.Character, error) {
	var characters []models.Character
	result := s.db.Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Find(&characters)
	if result.Error != nil {
		return nil, result.Error
	}
	return characters, nil
}

// UpdateCharacter applies owner edits to a character. Only the creator may
// edit, and only content fields are touched.
func (s *CharacterService) UpdateCharacter(id, userID uint, req *models.UpdateCharacterRequest) (*models.Character, error) {
	character, err := s.GetCharacter(id)
	if err != nil {
		return nil, err
	}

	if character.CreatorID != userID {
		return nil, ErrNotCharacterOwner
	}

	applyCharacterUpdate(character, req)

	if err := s.db.Save(character).Error; err != nil {
		return nil, err
	}
	s.invalidate(id)

	return character, nil
}

// AdminUpdateCharacter applies an admin edit, including moderation fields
func (s *CharacterService) AdminUpdateCharacter(id uint, req *models.AdminUpdateCharacterRequest) (*models.Character, error) {
	character, err := s.GetCharacter(id)
	if err != nil {
		return nil, err
	}

	applyCharacterUpdate(character, &req.UpdateCharacterRequest)

	if req.Status != nil {
		character.Status = *req.Status
	}
	if req.IsPublic != nil {
		character.IsPublic = *req.IsPublic
	}
	if req.IsFeatured != nil {
		character.IsFeatured = *req.IsFeatured
	}
	if req.AdminFeedback != nil {
		character.AdminFeedback = *req.AdminFeedback
	}

	if err := s.db.Save(character).Error; err != nil {
		return nil, err
	}
	s.invalidate(id)

	return character, nil
}

// ApproveCharacter moves a pending character to approved. Only pending
// characters can be approved.
func (s *CharacterService) ApproveCharacter(id uint) (*models.Character, error) {
	return s.moderate(id, models.StatusApproved, "")
}

// RejectCharacter moves a pending character to rejected with feedback for
// the creator. Only pending characters can be rejected.
func (s *CharacterService) RejectCharacter(id uint, feedback string) (*models.Character, error) {
	return s.moderate(id, models.StatusRejected, feedback)
}

func (s *CharacterService) moderate(id uint, status models.CharacterStatus, feedback string) (*models.Character, error) {
	character, err := s.GetCharacter(id)
	if err != nil {
		return nil, err
	}

	if character.Status != models.StatusPending {
		return nil, ErrInvalidTransition
	}

	character.Status = status
	if feedback != "" {
		character.AdminFeedback = feedback
	}

	if err := s.db.Save(character).Error; err != nil {
		return nil, err
	}
	s.invalidate(id)

	return character, nil
}

// DeleteCharacter removes a character. The creator may delete their own;
// admins may delete any (enforced at the handler layer).
func (s *CharacterService) DeleteCharacter(id uint) error {
	result := s.db.Delete(&models.Character{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCharacterNotFound
	}
	s.invalidate(id)
	return nil
}

// BumpPopularity increments a character's popularity score
func (s *CharacterService) BumpPopularity(id uint) error {
	err := s.db.Model(&models.Character{}).
		Where("id = ?", id).
		UpdateColumn("popularity_score", gorm.Expr("popularity_score + 1")).Error
	if err != nil {
		return err
	}
	s.invalidate(id)
	return nil
}

func applyCharacterUpdate(character *models.Character, req *models.UpdateCharacterRequest) {
	if req.Name != nil {
		character.Name = *req.Name
	}
	if req.Description != nil {
		character.Description = *req.Description
	}
	if req.ImageURL != nil {
		character.ImageURL = *req.ImageURL
	}
	if req.Scenario != nil {
		character.Scenario = *req.Scenario
	}
	if req.PersonalityTraits != nil {
		character.PersonalityTraits = *req.PersonalityTraits
	}
	if req.WritingStyle != nil {
		character.WritingStyle = *req.WritingStyle
	}
	if req.Background != nil {
		character.Background = *req.Background
	}
	if req.KnowledgeScope != nil {
		character.KnowledgeScope = *req.KnowledgeScope
	}
	if req.Quirks != nil {
		character.Quirks = *req.Quirks
	}
	if req.EmotionalRange != nil {
		character.EmotionalRange = *req.EmotionalRange
	}
	if req.Language != nil {
		character.Language = *req.Language
	}
	if req.GreetingMessage != nil {
		character.GreetingMessage = *req.GreetingMessage
	}
	if req.FallbackResponse != nil {
		character.FallbackResponse = *req.FallbackResponse
	}
	if req.Category != nil {
		character.Category = *req.Category
	}
	if req.Tags != nil {
		character.Tags = *req.Tags
	}
	if req.VoiceID != nil {
		character.VoiceID = *req.VoiceID
	}
}
