package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
	"github.com/assocdesk/memberportal/internal/requestctx"
	"github.com/assocdesk/memberportal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, adminID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error {
	entry, err := s.buildEntry(ctx, adminID, action, targetType, targetID, metadata)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("failed to write action log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, adminID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error {
	entry, err := s.buildEntry(ctx, adminID, action, targetType, targetID, metadata)
	if err != nil {
		return err
	}
	return s.repo.Insert(ctx, tx, entry)
}

func (s *Service) buildEntry(ctx context.Context, adminID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) (*auditdomain.ActionLog, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, auditdomain.ErrInvalidAction
	}
	if adminID == 0 {
		return nil, auditdomain.ErrInvalidAdmin
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := map[string]any{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := requestctx.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	entry := &auditdomain.ActionLog{
		ID:         s.genID.Generate(),
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   normalizePointer(targetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  time.Now().UTC(),
	}
	if ip := requestctx.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if userAgent := requestctx.UserAgentFromContext(ctx); userAgent != "" {
		entry.UserAgent = &userAgent
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListActionLogRequest) (auditdomain.ListActionLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListActionLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.ListCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListActionLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListActionLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListActionLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.ListCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	var adminID *snowflake.ID
	if trimmed := strings.TrimSpace(req.AdminID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err != nil || parsed == 0 {
			return auditdomain.ListActionLogResponse{}, auditdomain.ErrInvalidAdmin
		}
		adminID = &parsed
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		AdminID:    adminID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListActionLogResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.ActionLog) string {
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

	logs := make([]auditdomain.ActionLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := auditdomain.ListActionLogResponse{ActionLogs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
