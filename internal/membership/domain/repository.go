package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, app *Application) error
	FindByID(ctx context.Context, db *gorm.DB, membershipType MembershipType, id snowflake.ID) (*Application, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, membershipType MembershipType, id snowflake.ID) (*Application, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Application, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]*Application, error)
	UpdatePayload(ctx context.Context, db *gorm.DB, app *Application) error
	UpdateDecision(ctx context.Context, db *gorm.DB, app *Application) error
	UpdateArchived(ctx context.Context, db *gorm.DB, app *Application) error
	Delete(ctx context.Context, db *gorm.DB, membershipType MembershipType, id snowflake.ID) error

	InsertClaim(ctx context.Context, db *gorm.DB, claim *IdentityClaim) error
	FindClaim(ctx context.Context, db *gorm.DB, identityNumber string) (*IdentityClaim, error)
	UpdateClaimStatus(ctx context.Context, db *gorm.DB, identityNumber string, status Status) error
	DeleteClaim(ctx context.Context, db *gorm.DB, identityNumber string, applicationID snowflake.ID) error
}
