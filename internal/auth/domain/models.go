package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role gates the admin surface. There are only two levels; finer-grained
// permissions sit on top in the authorization package.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"not null;uniqueIndex;size:255" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	Name         string       `gorm:"not null" json:"name"`
	Role         Role         `gorm:"not null;default:member;size:16" json:"role"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is one opaque browser session. The token is the cookie value;
// expired rows are swept opportunistically on lookup.
type Session struct {
	Token     string       `gorm:"primaryKey;size:64" json:"-"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
