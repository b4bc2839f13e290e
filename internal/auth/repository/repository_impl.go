package repository

import (
	"context"
	"errors"
	"time"

	"github.com/assocdesk/memberportal/internal/auth/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *domain.User) error {
	if user == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (
			id, email, password_hash, name, role, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	if session == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	).Error
}

func (r *repo) FindSession(ctx context.Context, db *gorm.DB, token string) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) DeleteSession(ctx context.Context, db *gorm.DB, token string) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE token = ?`, token,
	).Error
}

func (r *repo) DeleteExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE expires_at <= ?`, now,
	).Error
}
