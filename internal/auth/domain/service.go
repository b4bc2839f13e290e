package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

type LoginRequest struct {
	Email    string
	Password string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (User, error)
	Login(ctx context.Context, req LoginRequest) (User, Session, error)
	Authenticate(ctx context.Context, token string) (User, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, id snowflake.ID) (User, error)
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrSessionExpired     = errors.New("session_expired")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not_found")
)
