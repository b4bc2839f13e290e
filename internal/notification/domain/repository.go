package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID     snowflake.ID
	UnreadOnly bool
	Cursor     *ListCursor
	Limit      int
}

type ListCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Notification, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID, readAt time.Time) error
	MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID, readAt time.Time) error
	CountUnread(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
}
