package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minlee/storefront-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCartConfig() *config.CartConfig {
	return &config.CartConfig{
		SessionCookieName:   "session_cart_id",
		SessionCookieMaxAge: 720 * time.Hour,
	}
}

func TestSessionCart_IssuesCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var captured string
	router.GET("/cart", SessionCart(testCartConfig()), func(c *gin.Context) {
		captured, _ = GetSessionCartID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, captured)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_cart_id", cookies[0].Name)
	assert.Equal(t, captured, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionCart_ReusesExistingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var captured string
	router.GET("/cart", SessionCart(testCartConfig()), func(c *gin.Context) {
		captured, _ = GetSessionCartID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "session_cart_id", Value: "existing-session"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "existing-session", captured)
	// No replacement cookie is issued
	assert.Empty(t, w.Result().Cookies())
}

func TestCartOwnerFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Anonymous: session only
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(SessionCartIDKey, "session-1")
	owner := CartOwnerFromContext(c)
	assert.Nil(t, owner.UserID)
	assert.Equal(t, "session-1", owner.SessionID)

	// Signed in: both identities present
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set(UserIDKey, uint(42))
	c.Set(SessionCartIDKey, "session-2")
	owner = CartOwnerFromContext(c)
	require.NotNil(t, owner.UserID)
	assert.Equal(t, uint(42), *owner.UserID)
	assert.Equal(t, "session-2", owner.SessionID)

	// Nothing set
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	owner = CartOwnerFromContext(c)
	assert.Nil(t, owner.UserID)
	assert.Empty(t, owner.SessionID)
}
