package router

import (
	"time"

	"ai-character-chat/backend/internal/api"
	"ai-character-chat/backend/internal/ws"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/di"
	"ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/health"
	"ai-character-chat/backend/pkg/jwt"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/middleware"
	"ai-character-chat/backend/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Config    *config.Config
	Health    *health.Checker
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	hub := ws.NewHub(container.ConversationService, container.JWTService, container.Logger)
	go hub.Run()

	checker := health.NewChecker(container.Logger, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return config.TestConnection(container.DB)
	})
	checker.RegisterProviderCheck(container.AIRegistry.AvailableProviders)
	checker.Start()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Config:    cfg,
		Health:    checker,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Logger)
	characterHandler := api.NewCharacterHandler(r.Container.CharacterService, r.Logger)
	conversationHandler := api.NewConversationHandler(r.Container.ConversationService, r.Logger)
	adminHandler := api.NewAdminHandler(r.Container.CharacterService, r.Container.AIService, r.Logger)

	v1 := r.Engine.Group("/api/v1")

	// Public routes (no auth required)
	publicRoutes := v1.Group("/")
	{
		publicRoutes.GET("/health", gin.WrapF(r.Health.LivenessHandler()))
		publicRoutes.GET("/health/detailed", gin.WrapF(r.Health.HTTPHandler()))

		authRoutes := publicRoutes.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", jwtAuth, authHandler.Me)
		}
	}

	// Protected routes (require authentication)
	protectedRoutes := v1.Group("/")
	protectedRoutes.Use(jwtAuth)
	{
		characterRoutes := protectedRoutes.Group("/characters")
		{
			characterRoutes.POST("", characterHandler.SubmitCharacter)
			characterRoutes.GET("", characterHandler.ListCharacters)
			characterRoutes.GET("/categories", characterHandler.ListCategories)
			characterRoutes.GET("/mine", characterHandler.ListMyCharacters)
			characterRoutes.GET("/:id", characterHandler.GetCharacter)
			characterRoutes.PUT("/:id", characterHandler.UpdateCharacter)
			characterRoutes.DELETE("/:id", characterHandler.DeleteCharacter)
		}

		conversationRoutes := protectedRoutes.Group("/conversations")
		{
			conversationRoutes.POST("", conversationHandler.StartConversation)
			conversationRoutes.GET("", conversationHandler.ListConversations)
			conversationRoutes.GET("/:id/messages", conversationHandler.ListMessages)
			conversationRoutes.POST("/:id/messages", conversationHandler.SendMessage)
			conversationRoutes.DELETE("/:id", conversationHandler.DeleteConversation)
		}

		adminRoutes := protectedRoutes.Group("/admin")
		adminRoutes.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			adminRoutes.GET("/characters", adminHandler.ListCharacters)
			adminRoutes.GET("/characters/pending", adminHandler.ListPendingCharacters)
			adminRoutes.POST("/characters/:id/approve", adminHandler.ApproveCharacter)
			adminRoutes.POST("/characters/:id/reject", adminHandler.RejectCharacter)
			adminRoutes.PUT("/characters/:id", adminHandler.UpdateCharacter)
			adminRoutes.DELETE("/characters/:id", adminHandler.DeleteCharacter)

			adminRoutes.GET("/config/ai-provider", adminHandler.GetProviderConfig)
			adminRoutes.PUT("/config/ai-provider", adminHandler.SetActiveProvider)
		}
	}

	// WebSocket route; auth happens inside the handler via query token
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, c)
	})
}

// AddOpenAPIValidation enables request validation against an OpenAPI
// schema file
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		return err
	}
	r.Engine.Use(v.Middleware())
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
