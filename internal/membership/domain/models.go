package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// MembershipType identifies one of the four membership classes.
type MembershipType string

const (
	TypeOrdinary         MembershipType = "ordinary"
	TypeAssociate        MembershipType = "associate"
	TypeIndividual       MembershipType = "individual"
	TypeTradeAssociation MembershipType = "trade_association"
)

func ParseMembershipType(raw string) (MembershipType, bool) {
	switch MembershipType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeOrdinary:
		return TypeOrdinary, true
	case TypeAssociate:
		return TypeAssociate, true
	case TypeIndividual:
		return TypeIndividual, true
	case TypeTradeAssociation:
		return TypeTradeAssociation, true
	default:
		return "", false
	}
}

// Status is the shared application lifecycle enum. One canonical string
// mapping across every membership class, never raw integers.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application is one membership request record. Payload carries the
// applicant-supplied fields (company name, address, representatives, TSIC
// classification); the workflow treats them as opaque.
type Application struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	MembershipType MembershipType    `gorm:"column:membership_type;not null;index" json:"membership_type"`
	UserID         snowflake.ID      `gorm:"not null;index" json:"user_id"`
	IdentityNumber string            `gorm:"not null;size:13;index" json:"identity_number"`
	Status         Status            `gorm:"not null;default:pending;index" json:"status"`
	Payload        datatypes.JSONMap `gorm:"not null;default:'{}'" json:"payload"`

	AdminNote       *string       `gorm:"column:admin_note" json:"admin_note,omitempty"`
	RejectionReason *string       `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	ApprovedBy      *snowflake.ID `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time    `gorm:"column:approved_at" json:"approved_at,omitempty"`
	RejectedBy      *snowflake.ID `gorm:"column:rejected_by" json:"rejected_by,omitempty"`
	RejectedAt      *time.Time    `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	Archived        bool          `gorm:"not null;default:false" json:"archived"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IdentityClaim pins an identity number to its single non-terminal
// application. The primary key doubles as the uniqueness constraint, so two
// concurrent submissions can never both commit; the loser surfaces as a
// duplicate-key error inside the create transaction.
type IdentityClaim struct {
	IdentityNumber string         `gorm:"primaryKey;size:13" json:"identity_number"`
	MembershipType MembershipType `gorm:"not null" json:"membership_type"`
	ApplicationID  snowflake.ID   `gorm:"not null" json:"application_id"`
	Status         Status         `gorm:"not null" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
