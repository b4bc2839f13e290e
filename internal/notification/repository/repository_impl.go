package repository

import (
	"context"
	"errors"
	"time"

	"github.com/assocdesk/memberportal/internal/notification/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	if notification == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (
			id, user_id, type, title, body,
			resource_type, resource_id, read_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Body,
		notification.ResourceType,
		notification.ResourceID,
		notification.ReadAt,
		notification.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Notification, error) {
	var notification domain.Notification
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	stmt := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ?", filter.UserID)

	if filter.UnreadOnly {
		stmt = stmt.Where("read_at IS NULL")
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID, readAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`,
		readAt, id,
	).Error
}

func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID, readAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`,
		readAt, userID,
	).Error
}

func (r *repo) CountUnread(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
