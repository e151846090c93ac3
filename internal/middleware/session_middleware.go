package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minlee/storefront-backend/config"
	"github.com/minlee/storefront-backend/internal/app/service"
	"github.com/minlee/storefront-backend/pkg/util"
)

// SessionCartIDKey is the context key for the anonymous cart session token.
const SessionCartIDKey = "session_cart_id"

// SessionCart guarantees every request carries a durable cart session id:
// it reads the session cookie and issues a fresh one when absent. The token
// keys the anonymous cart until sign-in transfers ownership.
func SessionCart(cfg *config.CartConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.SessionCookieName)
		if err != nil || sessionID == "" {
			sessionID = util.NewSessionCartID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(
				cfg.SessionCookieName,
				sessionID,
				int(cfg.SessionCookieMaxAge.Seconds()),
				"/",
				"",
				false,
				true,
			)

			GetLoggerFromContext(c).Debug("Issued new cart session cookie", map[string]interface{}{
				"session_cart_id": sessionID,
			})
		}

		c.Set(SessionCartIDKey, sessionID)
		c.Next()
	}
}

// GetSessionCartID extracts the cart session id from context.
func GetSessionCartID(c *gin.Context) (string, bool) {
	sessionID := c.GetString(SessionCartIDKey)
	return sessionID, sessionID != ""
}

// CartOwnerFromContext builds the cart owner identity from the request:
// the authenticated user when present, plus the session token.
func CartOwnerFromContext(c *gin.Context) service.CartOwner {
	owner := service.CartOwner{}
	if userID, ok := GetUserID(c); ok {
		owner.UserID = &userID
	}
	if sessionID, ok := GetSessionCartID(c); ok {
		owner.SessionID = sessionID
	}
	return owner
}
