package repository

import (
	"context"

	"github.com/assocdesk/memberportal/internal/conversation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO conversation_entries (
			id, application_id, membership_type, author_id, author_role,
			body, is_internal, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ApplicationID,
		entry.MembershipType,
		entry.AuthorID,
		entry.AuthorRole,
		entry.Body,
		entry.IsInternal,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	stmt := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("application_id = ?", filter.ApplicationID)

	if !filter.IncludeInternal {
		stmt = stmt.Where("is_internal = ?", false)
	}

	if err := stmt.Order("created_at asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
