package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Notification is one in-portal message for a user. ReadAt doubles as the
// read flag; nil means unread.
type Notification struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID `gorm:"not null;index" json:"user_id"`
	Type         string       `gorm:"not null;size:64" json:"type"`
	Title        string       `gorm:"not null" json:"title"`
	Body         string       `gorm:"not null;type:text" json:"body"`
	ResourceType *string      `gorm:"column:resource_type" json:"resource_type,omitempty"`
	ResourceID   *string      `gorm:"column:resource_id" json:"resource_id,omitempty"`
	ReadAt       *time.Time   `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
