package server

import (
	"net/http"
	"time"

	"github.com/assocdesk/memberportal/internal/authorization"
	"github.com/gin-gonic/gin"

	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
)

func (s *Server) registerMemberRoutes() {
	group := s.engine.Group("/api/v1", s.AuthRequired())

	group.GET("/identity-check", s.handleIdentityCheck)
	group.GET("/applications/me", s.handleListMyApplications)

	apps := group.Group("/applications/:type")
	apps.POST("", s.handleCreateApplication)
	apps.GET("/:id", s.handleGetApplication)
	apps.PATCH("/:id", s.handleUpdateApplication)
	apps.DELETE("/:id", s.handleDeleteApplication)
	apps.GET("/:id/certificate", s.handleApplicationCertificate)

	apps.POST("/:id/comments", s.handleAddComment)
	apps.GET("/:id/comments", s.handleListComments)

	s.registerNotificationRoutes(group)
}

func membershipTypeParam(c *gin.Context) (membershipdomain.MembershipType, bool) {
	membershipType, ok := membershipdomain.ParseMembershipType(c.Param("type"))
	if !ok {
		AbortWithError(c, membershipdomain.ErrInvalidMembershipType)
		return "", false
	}
	return membershipType, true
}

func (s *Server) handleIdentityCheck(c *gin.Context) {
	check, err := s.membershipSvc.CheckIdentity(c.Request.Context(), c.Query("identity_number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

type createApplicationRequest struct {
	IdentityNumber string         `json:"identity_number" binding:"required"`
	Payload        map[string]any `json:"payload"`
}

func (s *Server) handleCreateApplication(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	app, err := s.membershipSvc.Create(c.Request.Context(), membershipdomain.CreateApplicationRequest{
		MembershipType: membershipType,
		UserID:         viewer.UserID,
		IdentityNumber: req.IdentityNumber,
		Payload:        req.Payload,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (s *Server) handleGetApplication(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	app, err := s.membershipSvc.GetByID(c.Request.Context(), membershipType, c.Param("id"), viewer)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleListMyApplications(c *gin.Context) {
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	apps, err := s.membershipSvc.ListByUser(c.Request.Context(), viewer.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

type updateApplicationRequest struct {
	Payload map[string]any `json:"payload" binding:"required"`
}

func (s *Server) handleUpdateApplication(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	app, err := s.membershipSvc.Update(c.Request.Context(), membershipdomain.UpdateApplicationRequest{
		MembershipType: membershipType,
		ID:             c.Param("id"),
		Viewer:         viewer,
		Payload:        req.Payload,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.membershipSvc.Delete(c.Request.Context(), membershipType, c.Param("id"), viewer.UserID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleApplicationCertificate(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	app, err := s.membershipSvc.GetByID(c.Request.Context(), membershipType, c.Param("id"), viewer)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if app.Status != membershipdomain.StatusApproved {
		AbortWithError(c, ErrConflict)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), app.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	approvedDate := ""
	if app.ApprovedAt != nil {
		approvedDate = app.ApprovedAt.Format("2 January 2006")
	}

	reader, err := s.pdfProvider.GenerateCertificate(c.Request.Context(), certificateData(
		user.Name, app, approvedDate,
	))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if viewer.Admin {
		targetID := app.ID.String()
		if err := s.auditSvc.Record(c.Request.Context(), viewer.UserID, "certificate.issue", "application", &targetID, map[string]any{
			"membership_type": string(app.MembershipType),
		}); err != nil {
			s.log.Warn("certificate issue not recorded")
		}
	}

	c.Header("Content-Disposition", `attachment; filename="membership-certificate.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := copyTo(c, reader); err != nil {
		s.log.Warn("certificate stream interrupted")
	}
}

func (s *Server) registerAdminRoutes() {
	group := s.engine.Group("/api/v1/admin", s.AuthRequired())

	group.GET("/applications",
		s.RequirePermission(authorization.ObjectApplication, authorization.ActionApplicationListAll),
		s.handleAdminListApplications,
	)
	group.POST("/applications/:type/:id/approve",
		s.RequirePermission(authorization.ObjectApplication, authorization.ActionApplicationDecide),
		s.handleTransition(membershipdomain.ActionApprove),
	)
	group.POST("/applications/:type/:id/reject",
		s.RequirePermission(authorization.ObjectApplication, authorization.ActionApplicationDecide),
		s.handleTransition(membershipdomain.ActionReject),
	)
	group.POST("/applications/:type/:id/archive",
		s.RequirePermission(authorization.ObjectApplication, authorization.ActionApplicationArchive),
		s.handleArchiveApplication,
	)
	group.GET("/action-logs",
		s.RequirePermission(authorization.ObjectActionLog, authorization.ActionActionLogView),
		s.handleListActionLogs,
	)
	group.GET("/contact-messages",
		s.RequirePermission(authorization.ObjectContact, authorization.ActionContactView),
		s.handleListContactMessages,
	)
}

func (s *Server) handleAdminListApplications(c *gin.Context) {
	var req membershipdomain.ListApplicationsRequest
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		AbortWithError(c, membershipdomain.ErrInvalidPageToken)
		return
	}
	req.MembershipType = c.Query("membership_type")
	req.Status = c.Query("status")
	req.IdentityNumber = c.Query("identity_number")
	req.IncludeArchived = c.Query("include_archived") == "true"

	if raw := c.Query("created_from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid value"))
			return
		}
		req.CreatedFrom = &parsed
	}
	if raw := c.Query("created_to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid value"))
			return
		}
		req.CreatedTo = &parsed
	}

	resp, err := s.membershipSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleArchiveApplication(c *gin.Context) {
	membershipType, ok := membershipTypeParam(c)
	if !ok {
		return
	}
	viewer, ok := viewerFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	app, err := s.membershipSvc.Archive(c.Request.Context(), membershipType, c.Param("id"), viewer.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type transitionRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

func (s *Server) handleTransition(action membershipdomain.TransitionAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		membershipType, ok := membershipTypeParam(c)
		if !ok {
			return
		}
		viewer, ok := viewerFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		var req transitionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
				return
			}
		}

		app, err := s.membershipSvc.Transition(c.Request.Context(), membershipdomain.TransitionRequest{
			MembershipType: membershipType,
			ID:             c.Param("id"),
			Action:         action,
			AdminID:        viewer.UserID,
			Reason:         req.Reason,
			Note:           req.Note,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, app)
	}
}
