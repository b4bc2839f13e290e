package tsic

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Code is one industry classification entry. The table is reference data
// seeded by migration; the portal only reads it.
type Code struct {
	Code        string `gorm:"primaryKey;size:8" json:"code"`
	Description string `gorm:"not null" json:"description"`
	Category    string `gorm:"not null;size:4" json:"category"`
}

func (Code) TableName() string {
	return "tsic_codes"
}

type Service interface {
	Get(ctx context.Context, code string) (Code, error)
	Search(ctx context.Context, query string, limit int) ([]Code, error)
}

var ErrNotFound = errors.New("not_found")

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) Service {
	return &service{db: p.DB, log: p.Log.Named("tsic.service")}
}

func (s *service) Get(ctx context.Context, code string) (Code, error) {
	var row Code
	err := s.db.WithContext(ctx).
		Model(&Code{}).
		Where("code = ?", strings.TrimSpace(code)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Code{}, ErrNotFound
		}
		return Code{}, err
	}
	return row, nil
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]Code, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	stmt := s.db.WithContext(ctx).Model(&Code{})
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + q + "%"
		stmt = stmt.Where("code LIKE ? OR description LIKE ?", like, like)
	}

	var rows []Code
	if err := stmt.Order("code asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var Module = fx.Module("tsic.service", fx.Provide(NewService))
