package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
	"github.com/assocdesk/memberportal/internal/authorization"
	contactpkg "github.com/assocdesk/memberportal/internal/contact"
	conversationdomain "github.com/assocdesk/memberportal/internal/conversation/domain"
	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
	notificationdomain "github.com/assocdesk/memberportal/internal/notification/domain"
	"github.com/assocdesk/memberportal/internal/tsic"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type           string            `json:"type"`
	Message        string            `json:"message"`
	Errors         []ValidationError `json:"errors,omitempty"`
	ConflictType   string            `json:"conflict_type,omitempty"`
	ConflictStatus string            `json:"conflict_status,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// The identity conflict carries detail the client renders verbatim:
	// which class holds the number and whether that record is decided.
	var conflictErr *membershipdomain.IdentityConflictError
	if errors.As(err, &conflictErr) {
		return http.StatusConflict, errorPayload{
			Type:           "identity_conflict",
			Message:        conflictErr.Error(),
			ConflictType:   string(conflictErr.ConflictType),
			ConflictStatus: string(conflictErr.ConflictStatus),
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrUnauthenticated),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, membershipdomain.ErrNotOwner),
		errors.Is(err, notificationdomain.ErrNotOwner):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrEmailTaken),
		errors.Is(err, membershipdomain.ErrAlreadyDecided),
		errors.Is(err, membershipdomain.ErrNotPending),
		errors.Is(err, membershipdomain.ErrNotRejected),
		errors.Is(err, membershipdomain.ErrNotDecided):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, membershipdomain.ErrInvalidMembershipType),
		errors.Is(err, membershipdomain.ErrInvalidIdentityNumber),
		errors.Is(err, membershipdomain.ErrInvalidID),
		errors.Is(err, membershipdomain.ErrInvalidAction),
		errors.Is(err, membershipdomain.ErrInvalidPageToken),
		errors.Is(err, membershipdomain.ErrReasonRequired),
		errors.Is(err, conversationdomain.ErrEmptyBody),
		errors.Is(err, conversationdomain.ErrBodyTooLong),
		errors.Is(err, notificationdomain.ErrInvalidID),
		errors.Is(err, notificationdomain.ErrInvalidPageToken),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAdmin),
		errors.Is(err, contactpkg.ErrInvalidEmail),
		errors.Is(err, contactpkg.ErrEmptyBody),
		errors.Is(err, contactpkg.ErrBodyTooLong):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, membershipdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrNotFound),
		errors.Is(err, tsic.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	switch code {
	case "reason_required":
		return "reason"
	case "empty_body", "body_too_long":
		return "body"
	case "weak_password":
		return "password"
	default:
		return ""
	}
}
