package server

import (
	"net/http"
	"strconv"

	"github.com/assocdesk/memberportal/internal/contact"
	"github.com/gin-gonic/gin"
)

func (s *Server) registerPublicRoutes() {
	group := s.engine.Group("/api/v1")
	group.POST("/contact", s.handleCreateContactMessage)
	group.GET("/tsic", s.handleSearchTsic)
	group.GET("/tsic/:code", s.handleGetTsic)
}

type contactMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body" binding:"required"`
}

func (s *Server) handleCreateContactMessage(c *gin.Context) {
	var req contactMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	message, err := s.contactSvc.Create(c.Request.Context(), contact.CreateMessageRequest{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (s *Server) handleListContactMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	messages, err := s.contactSvc.List(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *Server) handleSearchTsic(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	codes, err := s.tsicSvc.Search(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

func (s *Server) handleGetTsic(c *gin.Context) {
	code, err := s.tsicSvc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}
