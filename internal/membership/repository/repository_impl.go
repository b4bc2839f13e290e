package repository

import (
	"context"
	"strings"

	"github.com/assocdesk/memberportal/internal/membership/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO applications (
			id, membership_type, user_id, identity_number, status, payload,
			admin_note, archived, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID,
		app.MembershipType,
		app.UserID,
		app.IdentityNumber,
		app.Status,
		app.Payload,
		app.AdminNote,
		app.Archived,
		app.CreatedAt,
		app.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, membershipType domain.MembershipType, id snowflake.ID) (*domain.Application, error) {
	var app domain.Application
	err := db.WithContext(ctx).
		Where("membership_type = ? AND id = ?", membershipType, id).
		First(&app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, membershipType domain.MembershipType, id snowflake.ID) (*domain.Application, error) {
	stmt := db.WithContext(ctx)
	// SQLite has no row locks; its single-writer model covers the same
	// ground, and it rejects the FOR UPDATE syntax outright.
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var app domain.Application
	err := stmt.
		Where("membership_type = ? AND id = ?", membershipType, id).
		First(&app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Application, error) {
	var apps []*domain.Application
	stmt := db.WithContext(ctx).Model(&domain.Application{})

	if filter.MembershipType != "" {
		stmt = stmt.Where("membership_type = ?", filter.MembershipType)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if identity := strings.TrimSpace(filter.IdentityNumber); identity != "" {
		stmt = stmt.Where("identity_number = ?", identity)
	}
	if !filter.IncludeArchived {
		stmt = stmt.Where("archived = ?", false)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", filter.CreatedTo.UTC())
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

	if err := stmt.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*domain.Application, error) {
	var apps []*domain.Application
	err := db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("user_id = ? AND archived = ?", userID, false).
		Order("created_at desc, id desc").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) UpdatePayload(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Exec(
		`UPDATE applications SET payload = ?, updated_at = ? WHERE id = ?`,
		app.Payload,
		app.UpdatedAt,
		app.ID,
	).Error
}

func (r *repo) UpdateDecision(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Exec(
		`UPDATE applications SET
			status = ?, admin_note = ?, rejection_reason = ?,
			approved_by = ?, approved_at = ?, rejected_by = ?, rejected_at = ?,
			updated_at = ?
		 WHERE id = ?`,
		app.Status,
		app.AdminNote,
		app.RejectionReason,
		app.ApprovedBy,
		app.ApprovedAt,
		app.RejectedBy,
		app.RejectedAt,
		app.UpdatedAt,
		app.ID,
	).Error
}

func (r *repo) UpdateArchived(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Exec(
		`UPDATE applications SET archived = ?, updated_at = ? WHERE id = ?`,
		app.Archived,
		app.UpdatedAt,
		app.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, membershipType domain.MembershipType, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM applications WHERE membership_type = ? AND id = ?`,
		membershipType,
		id,
	).Error
}

func (r *repo) InsertClaim(ctx context.Context, db *gorm.DB, claim *domain.IdentityClaim) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO identity_claims (
			identity_number, membership_type, application_id, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		claim.IdentityNumber,
		claim.MembershipType,
		claim.ApplicationID,
		claim.Status,
		claim.CreatedAt,
		claim.UpdatedAt,
	).Error
}

func (r *repo) FindClaim(ctx context.Context, db *gorm.DB, identityNumber string) (*domain.IdentityClaim, error) {
	var claim domain.IdentityClaim
	err := db.WithContext(ctx).
		Where("identity_number = ?", identityNumber).
		First(&claim).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repo) UpdateClaimStatus(ctx context.Context, db *gorm.DB, identityNumber string, status domain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE identity_claims SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE identity_number = ?`,
		status,
		identityNumber,
	).Error
}

func (r *repo) DeleteClaim(ctx context.Context, db *gorm.DB, identityNumber string, applicationID snowflake.ID) error {
	// Scoped to the owning application so a freed identity reclaimed by a
	// newer submission is never deleted by a stale rejection.
	return db.WithContext(ctx).Exec(
		`DELETE FROM identity_claims WHERE identity_number = ? AND application_id = ?`,
		identityNumber,
		applicationID,
	).Error
}
