package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestCurrentUserID(t *testing.T) {
	c, _ := testContext("/")

	_, ok := currentUserID(c)
	assert.False(t, ok)

	c.Set("userId", uint(42))
	userID, ok := currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)
}

func TestCurrentUserIDRejectsWrongType(t *testing.T) {
	c, _ := testContext("/")
	c.Set("userId", "42")

	_, ok := currentUserID(c)
	assert.False(t, ok)
}

func TestPathID(t *testing.T) {
	c, _ := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "17"}}

	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(17), id)
}

func TestPathIDRejectsNonNumeric(t *testing.T) {
	c, _ := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	_, ok := pathID(c, "id")
	assert.False(t, ok)
}

func TestQueryInt(t *testing.T) {
	c, _ := testContext("/?limit=25&bad=xyz")

	assert.Equal(t, 25, queryInt(c, "limit", 50))
	assert.Equal(t, 50, queryInt(c, "missing", 50))
	assert.Equal(t, 50, queryInt(c, "bad", 50))
}
