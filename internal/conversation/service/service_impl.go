package service

import (
	"context"
	"strings"
	"time"

	"github.com/assocdesk/memberportal/internal/config"
	"github.com/assocdesk/memberportal/internal/conversation/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Memberships membershipdomain.Service
	Portal      *config.PortalConfigHolder `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	memberships membershipdomain.Service
	portal      *config.PortalConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("conversation.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		memberships: p.Memberships,
		portal:      p.Portal,
	}
}

func (s *Service) Add(ctx context.Context, req domain.AddEntryRequest) (domain.Entry, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return domain.Entry{}, domain.ErrEmptyBody
	}
	if limit := s.maxBodyLength(); limit > 0 && len(body) > limit {
		return domain.Entry{}, domain.ErrBodyTooLong
	}

	// GetByID enforces ownership: a member can only reach their own
	// application's thread, an admin can reach any.
	app, err := s.memberships.GetByID(ctx, req.MembershipType, req.ApplicationID, req.Viewer)
	if err != nil {
		return domain.Entry{}, err
	}

	role := "member"
	// Internal notes are an admin-only facility; the flag is dropped, not
	// rejected, when a member sends it.
	isInternal := false
	if req.Viewer.Admin {
		role = "admin"
		isInternal = req.IsInternal
	}

	entry := domain.Entry{
		ID:             s.genID.Generate(),
		ApplicationID:  app.ID,
		MembershipType: app.MembershipType,
		AuthorID:       req.Viewer.UserID,
		AuthorRole:     role,
		Body:           body,
		IsInternal:     isInternal,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, req domain.ListEntriesRequest) ([]domain.Entry, error) {
	app, err := s.memberships.GetByID(ctx, req.MembershipType, req.ApplicationID, req.Viewer)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		ApplicationID:   app.ID,
		IncludeInternal: req.Viewer.Admin,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}
	return entries, nil
}

func (s *Service) maxBodyLength() int {
	if s.portal == nil {
		return config.DefaultMaxCommentLength
	}
	return s.portal.Get().MaxCommentLength
}
