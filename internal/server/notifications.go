package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	notificationdomain "github.com/assocdesk/memberportal/internal/notification/domain"
)

func (s *Server) registerNotificationRoutes(group *gin.RouterGroup) {
	group.GET("/notifications", s.handleListNotifications)
	group.GET("/notifications/unread-count", s.handleUnreadCount)
	group.POST("/notifications/:id/read", s.handleMarkNotificationRead)
	group.POST("/notifications/read-all", s.handleMarkAllNotificationsRead)
}

func (s *Server) handleListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req notificationdomain.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		AbortWithError(c, notificationdomain.ErrInvalidPageToken)
		return
	}
	req.UserID = user.ID
	req.UnreadOnly = c.Query("unread_only") == "true"

	resp, err := s.notificationSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	count, err := s.notificationSvc.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	notification, err := s.notificationSvc.MarkRead(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (s *Server) handleMarkAllNotificationsRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.notificationSvc.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
