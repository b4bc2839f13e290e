package domain

import (
	"time"

	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
	"github.com/bwmarrin/snowflake"
)

// Entry is one message on an application's conversation thread. Entries
// are append-only; there is no edit or delete path.
type Entry struct {
	ID             snowflake.ID                    `gorm:"primaryKey" json:"id"`
	ApplicationID  snowflake.ID                    `gorm:"not null;index" json:"application_id"`
	MembershipType membershipdomain.MembershipType `gorm:"column:membership_type;not null" json:"membership_type"`
	AuthorID       snowflake.ID                    `gorm:"not null" json:"author_id"`
	AuthorRole     string                          `gorm:"not null;size:16" json:"author_role"`
	Body           string                          `gorm:"not null;type:text" json:"body"`
	IsInternal     bool                            `gorm:"column:is_internal;not null;default:false" json:"is_internal"`
	CreatedAt      time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Entry) TableName() string {
	return "conversation_entries"
}
