package di

import (
	"context"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/cache"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/jwt"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/secrets"
	"ai-character-chat/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB                  *gorm.DB
	Config              *config.Config
	Logger              *logger.Logger
	Redis               *redis.Client
	JWTService          *jwt.Service
	UserService         *service.UserService
	CharacterService    *service.CharacterService
	ConversationService *service.ConversationService
	ProviderConfigStore *service.ProviderConfigStore
	AIRegistry          *ai.Registry
	AIService           *ai.Service
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) *Container {
	resolveProviderSecrets(cfg)

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	redisClient := redis.NewClient()

	userService := service.NewUserService(db, jwtService)
	characterService := service.NewCharacterService(db, cache.NewCache())

	providerConfigStore := service.NewProviderConfigStore(db, redisClient, log)
	aiRegistry := ai.NewRegistry(cfg, providerConfigStore, log)
	aiService := ai.NewService(aiRegistry, cfg, log)

	conversationService := service.NewConversationService(db, characterService, aiService, cfg.AI.HistoryLimit, log)

	return &Container{
		DB:                  db,
		Config:              cfg,
		Logger:              log,
		Redis:               redisClient,
		JWTService:          jwtService,
		UserService:         userService,
		CharacterService:    characterService,
		ConversationService: conversationService,
		ProviderConfigStore: providerConfigStore,
		AIRegistry:          aiRegistry,
		AIService:           aiService,
	}
}

// resolveProviderSecrets overlays provider credentials from the secrets
// manager. Keys absent from Vault fall back to the environment-derived
// config values.
func resolveProviderSecrets(cfg *config.Config) {
	ctx := context.Background()
	cfg.AI.GeminiAPIKey = secrets.GetSecretWithDefault(ctx, "gemini_api_key", cfg.AI.GeminiAPIKey)
	cfg.AI.OpenAIAPIKey = secrets.GetSecretWithDefault(ctx, "openai_api_key", cfg.AI.OpenAIAPIKey)
	cfg.AI.ClaudeAPIKey = secrets.GetSecretWithDefault(ctx, "claude_api_key", cfg.AI.ClaudeAPIKey)
	cfg.AI.OpenRouterAPIKey = secrets.GetSecretWithDefault(ctx, "openrouter_api_key", cfg.AI.OpenRouterAPIKey)
}
