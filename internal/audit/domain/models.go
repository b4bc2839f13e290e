package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActionLog is one append-only record of a mutating admin action. Rows are
// written synchronously with the mutation they describe; decision writes
// share the mutation's transaction.
type ActionLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	AdminID    snowflake.ID      `gorm:"not null;index" json:"admin_id"`
	Action     string            `gorm:"not null;index" json:"action"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   *string           `gorm:"column:target_id" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"not null;default:'{}'" json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (ActionLog) TableName() string {
	return "admin_action_logs"
}
