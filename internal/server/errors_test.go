package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name: "identity conflict",
			err: &membershipdomain.IdentityConflictError{
				ConflictType:   membershipdomain.TypeOrdinary,
				ConflictStatus: membershipdomain.StatusApproved,
			},
			wantStatus: http.StatusConflict,
			wantType:   "identity_conflict",
		},
		{
			name:       "reason required",
			err:        membershipdomain.ErrReasonRequired,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
		},
		{
			name:       "not owner",
			err:        membershipdomain.ErrNotOwner,
			wantStatus: http.StatusForbidden,
			wantType:   "forbidden",
		},
		{
			name:       "already decided",
			err:        membershipdomain.ErrAlreadyDecided,
			wantStatus: http.StatusConflict,
			wantType:   "conflict",
		},
		{
			name:       "session expired",
			err:        authdomain.ErrSessionExpired,
			wantStatus: http.StatusUnauthorized,
			wantType:   "unauthorized",
		},
		{
			name:       "not found",
			err:        membershipdomain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   "not_found",
		},
		{
			name:       "unmapped error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, payload.Type)
		})
	}
}

func TestMapErrorIdentityConflictDetail(t *testing.T) {
	status, payload := mapError(&membershipdomain.IdentityConflictError{
		ConflictType:   membershipdomain.TypeAssociate,
		ConflictStatus: membershipdomain.StatusPending,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "associate", payload.ConflictType)
	assert.Equal(t, "pending", payload.ConflictStatus)
}

func TestMapErrorValidationField(t *testing.T) {
	_, payload := mapError(membershipdomain.ErrInvalidIdentityNumber)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "identity_number", payload.Errors[0].Field)
		assert.Equal(t, "invalid_identity_number", payload.Errors[0].Code)
	}

	_, payload = mapError(membershipdomain.ErrReasonRequired)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "reason", payload.Errors[0].Field)
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	engine.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, membershipdomain.ErrNotFound)
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/boom", nil)
	engine.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `{"error":{"type":"not_found","message":"not found"}}`, recorder.Body.String())
}
