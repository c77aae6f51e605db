package service

import (
	"context"
	"time"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/shared/redis"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeProviderKey is the Redis cache key for the active provider name
const activeProviderKey = "ai:active_provider"

// activeProviderTTL bounds cache staleness if an invalidation is lost
const activeProviderTTL = 10 * time.Minute

// ProviderConfigStore persists the singleton active-provider row, with a
// Redis read-through cache in front of the database. The database row is
// the source of truth; the cache entry is deleted on every write so the
// next read repopulates it. Redis failures are logged and ignored, the
// store then serves straight from the database.
type ProviderConfigStore struct {
	db    *gorm.DB
	cache *redis.Client
	log   *logger.Logger
}

// NewProviderConfigStore creates a provider config store. cache may be nil
// to run without Redis.
func NewProviderConfigStore(db *gorm.DB, cache *redis.Client, log *logger.Logger) *ProviderConfigStore {
	return &ProviderConfigStore{db: db, cache: cache, log: log}
}

// GetActiveProviderName returns the persisted active provider name, or ""
// when the singleton row does not exist yet.
func (s *ProviderConfigStore) GetActiveProviderName(ctx context.Context) (string, error) {
	if s.cache != nil {
		if name, err := s.cache.Get(ctx, activeProviderKey); err == nil && name != "" {
			return name, nil
		} else if err != nil && !redis.IsNotFound(err) {
			s.log.Warn("Provider config cache read failed", "error", err.Error())
		}
	}

	var config models.ProviderConfig
	result := s.db.WithContext(ctx).First(&config, models.ProviderConfigID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", result.Error
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, activeProviderKey, config.ActiveProviderName, activeProviderTTL); err != nil {
			s.log.Warn("Provider config cache write failed", "error", err.Error())
		}
	}

	return config.ActiveProviderName, nil
}

// SetActiveProviderName upserts the singleton row and invalidates the
// cache entry. Safe under concurrent callers; last writer wins.
func (s *ProviderConfigStore) SetActiveProviderName(ctx context.Context, name string) error {
	config := models.ProviderConfig{
		ID:                 models.ProviderConfigID,
		ActiveProviderName: name,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"active_provider_name", "updated_at"}),
	}).Create(&config).Error
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, activeProviderKey); err != nil {
			s.log.Warn("Provider config cache invalidation failed", "error", err.Error())
		}
	}

	return nil
}
