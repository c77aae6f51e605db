package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/jwt"
	"ai-character-chat/backend/pkg/logger"
)

func testAuthRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logConfig := logger.DefaultConfig()
	logConfig.Level = "error"
	log := logger.New(logConfig)

	jwtService := jwt.NewService("test-secret-not-for-production", time.Hour)

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(JWTAuthMiddleware(jwtService, log))
	r.GET("/me", func(c *gin.Context) {
		userID, _ := c.Get("userId")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/admin", RequireRole(jwt.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r, jwtService
}

func TestJWTAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	r, _ := testAuthRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")
}

func TestJWTAuthMiddlewareRejectsBadToken(t *testing.T) {
	r, _ := testAuthRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	r, jwtService := testAuthRouter(t)

	token, err := jwtService.GenerateToken(42, "user@example.com", jwt.RoleUser)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestRequireRoleForbidsUsers(t *testing.T) {
	r, jwtService := testAuthRouter(t)

	token, err := jwtService.GenerateToken(42, "user@example.com", jwt.RoleUser)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_ROLE")
}

func TestRequireRoleAdmitsAdmins(t *testing.T) {
	r, jwtService := testAuthRouter(t)

	token, err := jwtService.GenerateToken(1, "admin@example.com", jwt.RoleAdmin)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
