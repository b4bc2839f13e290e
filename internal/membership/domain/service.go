package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/assocdesk/memberportal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

// Viewer identifies the caller for ownership checks.
type Viewer struct {
	UserID snowflake.ID
	Admin  bool
}

// TransitionAction is an administrator decision on a pending application.
type TransitionAction string

const (
	ActionApprove TransitionAction = "approve"
	ActionReject  TransitionAction = "reject"
)

func ParseTransitionAction(raw string) (TransitionAction, bool) {
	switch TransitionAction(raw) {
	case ActionApprove:
		return ActionApprove, true
	case ActionReject:
		return ActionReject, true
	default:
		return "", false
	}
}

type IdentityCheck struct {
	Available      bool            `json:"available"`
	ConflictType   *MembershipType `json:"conflict_type,omitempty"`
	ConflictStatus *Status         `json:"conflict_status,omitempty"`
}

type CreateApplicationRequest struct {
	MembershipType MembershipType
	UserID         snowflake.ID
	IdentityNumber string
	Payload        map[string]any
}

type UpdateApplicationRequest struct {
	MembershipType MembershipType
	ID             string
	Viewer         Viewer
	Payload        map[string]any
}

type TransitionRequest struct {
	MembershipType MembershipType
	ID             string
	Action         TransitionAction
	AdminID        snowflake.ID
	Reason         string
	Note           string
}

type ListApplicationsRequest struct {
	pagination.Pagination
	MembershipType  string
	Status          string
	IdentityNumber  string
	IncludeArchived bool
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

type ListApplicationsResponse struct {
	pagination.PageInfo
	Applications []Application `json:"applications"`
}

type ListFilter struct {
	MembershipType  MembershipType
	Status          Status
	IdentityNumber  string
	IncludeArchived bool
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Cursor          *ListCursor
	Limit           int
}

type ListCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Service interface {
	CheckIdentity(ctx context.Context, identityNumber string) (IdentityCheck, error)
	Create(ctx context.Context, req CreateApplicationRequest) (Application, error)
	GetByID(ctx context.Context, membershipType MembershipType, id string, viewer Viewer) (Application, error)
	List(ctx context.Context, req ListApplicationsRequest) (ListApplicationsResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]Application, error)
	Update(ctx context.Context, req UpdateApplicationRequest) (Application, error)
	Delete(ctx context.Context, membershipType MembershipType, id string, owner snowflake.ID) error
	Transition(ctx context.Context, req TransitionRequest) (Application, error)
	Archive(ctx context.Context, membershipType MembershipType, id string, adminID snowflake.ID) (Application, error)
}

// LifecycleHook receives post-commit application events. Delivery is
// best-effort; a failing hook never unwinds the committed write.
type LifecycleHook interface {
	ApplicationSubmitted(ctx context.Context, app Application)
	ApplicationDecided(ctx context.Context, app Application)
}

var (
	ErrInvalidMembershipType = errors.New("invalid_membership_type")
	ErrInvalidIdentityNumber = errors.New("invalid_identity_number")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidAction         = errors.New("invalid_action")
	ErrInvalidPageToken      = errors.New("invalid_page_token")
	ErrReasonRequired        = errors.New("reason_required")
	ErrNotFound              = errors.New("not_found")
	ErrNotOwner              = errors.New("not_owner")
	ErrNotPending            = errors.New("not_pending")
	ErrNotRejected           = errors.New("not_rejected")
	ErrNotDecided            = errors.New("not_decided")
	ErrAlreadyDecided        = errors.New("already_decided")
)

// IdentityConflictError reports which membership class currently holds the
// identity and whether that record is still under review or already a
// member, so the caller can render a specific message.
type IdentityConflictError struct {
	ConflictType   MembershipType
	ConflictStatus Status
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("identity already %s as %s", e.ConflictStatus, e.ConflictType)
}
