package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/assocdesk/memberportal/internal/config"
	"github.com/assocdesk/memberportal/internal/membership/domain"
	"github.com/assocdesk/memberportal/pkg/db"
	"github.com/assocdesk/memberportal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
)

var identityNumberPattern = regexp.MustCompile(`^\d{13}$`)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Audit  auditdomain.Service
	Portal *config.PortalConfigHolder `optional:"true"`
	Hook   domain.LifecycleHook       `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	audit  auditdomain.Service
	portal *config.PortalConfigHolder
	hook   domain.LifecycleHook
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("membership.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		audit:  p.Audit,
		portal: p.Portal,
		hook:   p.Hook,
	}
}

func (s *Service) CheckIdentity(ctx context.Context, identityNumber string) (domain.IdentityCheck, error) {
	identityNumber = strings.TrimSpace(identityNumber)
	if !identityNumberPattern.MatchString(identityNumber) {
		return domain.IdentityCheck{}, domain.ErrInvalidIdentityNumber
	}

	claim, err := s.repo.FindClaim(ctx, s.db, identityNumber)
	if err != nil {
		return domain.IdentityCheck{}, err
	}
	if claim == nil {
		return domain.IdentityCheck{Available: true}, nil
	}

	conflictType := claim.MembershipType
	conflictStatus := claim.Status
	return domain.IdentityCheck{
		Available:      false,
		ConflictType:   &conflictType,
		ConflictStatus: &conflictStatus,
	}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateApplicationRequest) (domain.Application, error) {
	if !s.membershipEnabled(req.MembershipType) {
		return domain.Application{}, domain.ErrInvalidMembershipType
	}
	if req.UserID == 0 {
		return domain.Application{}, domain.ErrNotOwner
	}

	identityNumber := strings.TrimSpace(req.IdentityNumber)
	if !identityNumberPattern.MatchString(identityNumber) {
		return domain.Application{}, domain.ErrInvalidIdentityNumber
	}

	payload := datatypes.JSONMap{}
	for key, value := range req.Payload {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	now := time.Now().UTC()
	app := domain.Application{
		ID:             s.genID.Generate(),
		MembershipType: req.MembershipType,
		UserID:         req.UserID,
		IdentityNumber: identityNumber,
		Status:         domain.StatusPending,
		Payload:        payload,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	claim := domain.IdentityClaim{
		IdentityNumber: identityNumber,
		MembershipType: req.MembershipType,
		ApplicationID:  app.ID,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The claim insert carries the uniqueness invariant: its primary key
	// makes the second of two racing submissions fail here, inside the
	// transaction, regardless of what any pre-check saw.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertClaim(ctx, tx, &claim); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &app)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Application{}, s.conflictFor(ctx, identityNumber)
		}
		return domain.Application{}, err
	}

	if s.hook != nil {
		// Post-commit, best-effort. The submission receipt must never fail
		// the create.
		go s.hook.ApplicationSubmitted(context.WithoutCancel(ctx), app)
	}
	return app, nil
}

// conflictFor resolves the holding claim so the caller can render a
// specific message. Falls back to a generic pending conflict when the
// racing row is not readable yet.
func (s *Service) conflictFor(ctx context.Context, identityNumber string) error {
	claim, err := s.repo.FindClaim(ctx, s.db, identityNumber)
	if err != nil || claim == nil {
		return &domain.IdentityConflictError{
			ConflictType:   "",
			ConflictStatus: domain.StatusPending,
		}
	}
	return &domain.IdentityConflictError{
		ConflictType:   claim.MembershipType,
		ConflictStatus: claim.Status,
	}
}

func (s *Service) GetByID(ctx context.Context, membershipType domain.MembershipType, id string, viewer domain.Viewer) (domain.Application, error) {
	appID, err := s.parseID(id)
	if err != nil {
		return domain.Application{}, err
	}

	app, err := s.repo.FindByID(ctx, s.db, membershipType, appID)
	if err != nil {
		return domain.Application{}, err
	}
	if app == nil {
		return domain.Application{}, domain.ErrNotFound
	}
	if !viewer.Admin && app.UserID != viewer.UserID {
		return domain.Application{}, domain.ErrNotOwner
	}
	return *app, nil
}

func (s *Service) List(ctx context.Context, req domain.ListApplicationsRequest) (domain.ListApplicationsResponse, error) {
	filter := domain.ListFilter{
		IdentityNumber:  strings.TrimSpace(req.IdentityNumber),
		IncludeArchived: req.IncludeArchived,
		CreatedFrom:     req.CreatedFrom,
		CreatedTo:       req.CreatedTo,
	}

	if raw := strings.TrimSpace(req.MembershipType); raw != "" {
		membershipType, ok := domain.ParseMembershipType(raw)
		if !ok {
			return domain.ListApplicationsResponse{}, domain.ErrInvalidMembershipType
		}
		filter.MembershipType = membershipType
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		switch domain.Status(raw) {
		case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
			filter.Status = domain.Status(raw)
		default:
			return domain.ListApplicationsResponse{}, domain.ErrInvalidAction
		}
	}

	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListApplicationsResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListApplicationsResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListApplicationsResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.ListCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}
	filter.Limit = pageSize

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListApplicationsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Application) string {
		// Nano precision: second-truncated cursors can skip rows that share
		// the boundary second.
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	apps := make([]domain.Application, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		apps = append(apps, *item)
	}

	resp := domain.ListApplicationsResponse{Applications: apps}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.Application, error) {
	if userID == 0 {
		return nil, domain.ErrNotOwner
	}
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	apps := make([]domain.Application, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		apps = append(apps, *item)
	}
	return apps, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateApplicationRequest) (domain.Application, error) {
	appID, err := s.parseID(req.ID)
	if err != nil {
		return domain.Application{}, err
	}

	var updated domain.Application
	err = s.db.Transaction(func(tx *gorm.DB) error {
		app, err := s.repo.FindByIDForUpdate(ctx, tx, req.MembershipType, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrNotFound
		}
		if !req.Viewer.Admin && app.UserID != req.Viewer.UserID {
			return domain.ErrNotOwner
		}
		// An approved application's substantive fields are immutable here;
		// post-approval corrections go through a separate update request.
		if app.Status == domain.StatusApproved {
			return domain.ErrAlreadyDecided
		}

		payload := datatypes.JSONMap{}
		for key, value := range req.Payload {
			if key == "" {
				continue
			}
			payload[key] = value
		}
		app.Payload = payload
		app.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdatePayload(ctx, tx, app); err != nil {
			return err
		}
		updated = *app
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, membershipType domain.MembershipType, id string, owner snowflake.ID) error {
	appID, err := s.parseID(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		app, err := s.repo.FindByIDForUpdate(ctx, tx, membershipType, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrNotFound
		}
		if app.UserID != owner {
			return domain.ErrNotOwner
		}
		// Only applicant-initiated cleanup of rejected records; rejected
		// rows hold no identity claim, so nothing else to release.
		if app.Status != domain.StatusRejected {
			return domain.ErrNotRejected
		}
		return s.repo.Delete(ctx, tx, membershipType, appID)
	})
}

// Archive hides a decided application from the default admin listing.
// Pending records stay visible until they are decided.
func (s *Service) Archive(ctx context.Context, membershipType domain.MembershipType, id string, adminID snowflake.ID) (domain.Application, error) {
	appID, err := s.parseID(id)
	if err != nil {
		return domain.Application{}, err
	}
	if adminID == 0 {
		return domain.Application{}, domain.ErrNotOwner
	}

	var archived domain.Application
	err = s.db.Transaction(func(tx *gorm.DB) error {
		app, err := s.repo.FindByIDForUpdate(ctx, tx, membershipType, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrNotFound
		}
		if !app.Status.Terminal() {
			return domain.ErrNotDecided
		}
		if app.Archived {
			archived = *app
			return nil
		}

		app.Archived = true
		app.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateArchived(ctx, tx, app); err != nil {
			return err
		}

		targetID := app.ID.String()
		if err := s.audit.RecordTx(ctx, tx, adminID, "application.archive", "application", &targetID, map[string]any{
			"membership_type": string(app.MembershipType),
		}); err != nil {
			return err
		}

		archived = *app
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return archived, nil
}

func (s *Service) membershipEnabled(membershipType domain.MembershipType) bool {
	if _, ok := domain.ParseMembershipType(string(membershipType)); !ok {
		return false
	}
	if s.portal == nil {
		return true
	}
	for _, enabled := range s.portal.Get().EnabledMemberships {
		if enabled == string(membershipType) {
			return true
		}
	}
	return false
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
