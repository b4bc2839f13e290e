package domain

import (
	"context"
	"errors"

	"github.com/assocdesk/memberportal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

type CreateNotificationRequest struct {
	UserID       snowflake.ID
	Type         string
	Title        string
	Body         string
	ResourceType string
	ResourceID   string
}

type ListNotificationsRequest struct {
	pagination.Pagination
	UserID     snowflake.ID
	UnreadOnly bool
}

type ListNotificationsResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

type Service interface {
	Notify(ctx context.Context, req CreateNotificationRequest) (Notification, error)
	List(ctx context.Context, req ListNotificationsRequest) (ListNotificationsResponse, error)
	MarkRead(ctx context.Context, userID snowflake.ID, id string) (Notification, error)
	MarkAllRead(ctx context.Context, userID snowflake.ID) error
	UnreadCount(ctx context.Context, userID snowflake.ID) (int64, error)
}

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidType      = errors.New("invalid_type")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotFound         = errors.New("not_found")
	ErrNotOwner         = errors.New("not_owner")
)
