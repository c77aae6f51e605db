package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/pkg/logger"
)

func newTestChecker() *Checker {
	logConfig := logger.DefaultConfig()
	logConfig.Level = "error"
	return NewChecker(logger.New(logConfig), time.Minute)
}

func TestCheckerHealthyWhenCriticalChecksPass(t *testing.T) {
	c := newTestChecker()
	c.RegisterDatabaseCheck(func() error { return nil })
	c.RunChecks()

	assert.True(t, c.IsSystemHealthy())

	status := c.GetStatus()
	require.Contains(t, status, "database")
	assert.Equal(t, StatusUp, status["database"].Status)
}

func TestCheckerUnhealthyWhenCriticalCheckFails(t *testing.T) {
	c := newTestChecker()
	c.RegisterDatabaseCheck(func() error { return errors.New("connection refused") })
	c.RunChecks()

	assert.False(t, c.IsSystemHealthy())
}

func TestCheckerDegradedProvidersDoNotFailSystem(t *testing.T) {
	c := newTestChecker()
	c.RegisterDatabaseCheck(func() error { return nil })
	c.RegisterProviderCheck(func() []string { return nil })
	c.RunChecks()

	assert.True(t, c.IsSystemHealthy(), "missing providers degrade but never take the system down")

	status := c.GetStatus()
	require.Contains(t, status, "ai-providers")
	assert.Equal(t, StatusDegraded, status["ai-providers"].Status)
}

func TestCheckerProviderCheckUpWhenConfigured(t *testing.T) {
	c := newTestChecker()
	c.RegisterProviderCheck(func() []string { return []string{"gemini"} })
	c.RunChecks()

	assert.Equal(t, StatusUp, c.GetStatus()["ai-providers"].Status)
}

func TestHTTPHandlerStatusCodes(t *testing.T) {
	c := newTestChecker()
	c.RegisterDatabaseCheck(func() error { return errors.New("down") })
	c.RunChecks()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	c.HTTPHandler()(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["status"])
}
