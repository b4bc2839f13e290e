package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
)

func (s *Server) registerAuthRoutes() {
	group := s.engine.Group("/api/v1/auth")
	group.POST("/register", s.handleRegister)
	group.POST("/login", s.handleLogin)
	group.POST("/logout", s.handleLogout)
	group.GET("/me", s.AuthRequired(), s.handleMe)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	user, session, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	s.setSessionCookie(c, session.Token, maxAge)
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c *gin.Context) {
	if sid, err := c.Cookie(sessionCookieName); err == nil {
		if err := s.authsvc.Logout(c.Request.Context(), sid); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}
