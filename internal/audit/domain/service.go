package domain

import (
	"context"
	"errors"
	"time"

	"github.com/assocdesk/memberportal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListActionLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	AdminID    string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListActionLogResponse struct {
	pagination.PageInfo
	ActionLogs []ActionLog `json:"action_logs"`
}

type Service interface {
	// Record writes a best-effort entry on its own connection.
	Record(ctx context.Context, adminID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error
	// RecordTx writes inside the caller's transaction so the entry commits
	// or rolls back with the mutation it describes.
	RecordTx(ctx context.Context, tx *gorm.DB, adminID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListActionLogRequest) (ListActionLogResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidAdmin     = errors.New("invalid_admin")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
