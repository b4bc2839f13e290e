package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
)

const (
	sessionCookieName = "_sid"
	contextUserKey    = "current_user"
)

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookieName)
		if err != nil || strings.TrimSpace(sid) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), sid)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequirePermission gates a route on the caller's role holding the given
// capability. Must run after AuthRequired.
func (s *Server) RequirePermission(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), string(user.Role), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (authdomain.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return authdomain.User{}, false
	}
	user, ok := value.(authdomain.User)
	return user, ok
}

func viewerFrom(c *gin.Context) (membershipdomain.Viewer, bool) {
	user, ok := currentUser(c)
	if !ok {
		return membershipdomain.Viewer{}, false
	}
	return membershipdomain.Viewer{
		UserID: user.ID,
		Admin:  user.IsAdmin(),
	}, true
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", s.cfg.AuthCookieSecure, true)
}
