package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	conversationdomain "github.com/assocdesk/memberportal/internal/conversation/domain"
)

type addCommentRequest struct {
	Body       string `json:"body" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

func (s *Server) handleAddComment(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "empty_body", "invalid value"))
		return
	}

	entry, err := s.conversationSvc.Add(c.Request.Context(), conversationdomain.AddEntryRequest{
		MembershipType: membershipType,
		ApplicationID:  c.Param("id"),
		Viewer:         viewer,
		Body:           req.Body,
		IsInternal:     req.IsInternal,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleListComments(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	entries, err := s.conversationSvc.List(c.Request.Context(), conversationdomain.ListEntriesRequest{
		MembershipType: membershipType,
		ApplicationID:  c.Param("id"),
		Viewer:         viewer,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
