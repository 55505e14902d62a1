package middlewares

import (
	"net/http"
	"strings"

	"health-monitor/auth"
	"health-monitor/logging"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "user_id"
	usernameKey = "username"
)

// Session reads the session token from the cookie or an Authorization
// bearer header.
type Session struct {
	issuer     *auth.Issuer
	cookieName string
}

func NewSession(issuer *auth.Issuer, cookieName string) *Session {
	return &Session{issuer: issuer, cookieName: cookieName}
}

func (s *Session) token(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	tok, err := c.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	return tok
}

func (s *Session) claims(c *gin.Context) (*auth.Claims, bool) {
	tok := s.token(c)
	if tok == "" {
		return nil, false
	}
	claims, err := s.issuer.Parse(tok)
	if err != nil {
		logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected session token")
		return nil, false
	}
	return claims, true
}

// Optional stores the user in the context when a valid session exists.
func (s *Session) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := s.claims(c); ok {
			setUser(c, claims)
		}
		c.Next()
	}
}

// RequirePage redirects anonymous visitors to /login.
func (s *Session) RequirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := s.claims(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		setUser(c, claims)
		c.Next()
	}
}

// RequireAPI answers anonymous callers with 401.
func (s *Session) RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := s.claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		setUser(c, claims)
		c.Next()
	}
}

// SetCookie stores token as the session cookie.
func (s *Session) SetCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, int(s.issuer.TTL().Seconds()), "/", "", secure, true)
}

// ClearCookie drops the session cookie.
func (s *Session) ClearCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", "", secure, true)
}

func setUser(c *gin.Context, claims *auth.Claims) {
	c.Set(userIDKey, claims.UserID)
	c.Set(usernameKey, claims.Username)
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// Username returns the authenticated username, or "".
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}
