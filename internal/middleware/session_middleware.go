package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Session cookie settings
const (
	SessionCookieName = "sid"
	ContextKeySession = "sessionID"
	sessionMaxAge     = 30 * 24 * 60 * 60
)

// Session assigns every visitor a session id cookie so anonymous
// callers get their own last-visited pointer
func Session(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sid, sessionMaxAge, "/", "", secure, true)
		}
		c.Set(ContextKeySession, sid)
		c.Next()
	}
}

// SessionID returns the session id assigned by Session
func SessionID(c *gin.Context) string {
	return c.GetString(ContextKeySession)
}
