package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
)

func (s *Server) handleListActionLogs(c *gin.Context) {
	var req auditdomain.ListActionLogRequest
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		AbortWithError(c, auditdomain.ErrInvalidPageToken)
		return
	}
	req.Action = c.Query("action")
	req.TargetType = c.Query("target_type")
	req.TargetID = c.Query("target_id")
	req.AdminID = c.Query("admin_id")

	if raw := c.Query("start_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid value"))
			return
		}
		req.StartAt = &parsed
	}
	if raw := c.Query("end_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid value"))
			return
		}
		req.EndAt = &parsed
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
