package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	AdminID    *snowflake.ID
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *ListCursor
	Limit      int
}

type ListCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActionLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ActionLog, error)
}
