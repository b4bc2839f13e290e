package domain

import (
	"context"
	"errors"

	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
)

type AddEntryRequest struct {
	MembershipType membershipdomain.MembershipType
	ApplicationID  string
	Viewer         membershipdomain.Viewer
	Body           string
	IsInternal     bool
}

type ListEntriesRequest struct {
	MembershipType membershipdomain.MembershipType
	ApplicationID  string
	Viewer         membershipdomain.Viewer
}

type Service interface {
	Add(ctx context.Context, req AddEntryRequest) (Entry, error)
	List(ctx context.Context, req ListEntriesRequest) ([]Entry, error)
}

var (
	ErrEmptyBody   = errors.New("empty_body")
	ErrBodyTooLong = errors.New("body_too_long")
)
