package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/assocdesk/memberportal/internal/config"
	"github.com/assocdesk/memberportal/internal/notification/domain"
	"github.com/assocdesk/memberportal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Redis  *redis.Client              `optional:"true"`
	Portal *config.PortalConfigHolder `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	redis  *redis.Client
	portal *config.PortalConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("notification.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		redis:  p.Redis,
		portal: p.Portal,
	}
}

func (s *Service) Notify(ctx context.Context, req domain.CreateNotificationRequest) (domain.Notification, error) {
	if req.UserID == 0 {
		return domain.Notification{}, domain.ErrInvalidUser
	}
	notificationType := strings.TrimSpace(req.Type)
	if notificationType == "" {
		return domain.Notification{}, domain.ErrInvalidType
	}

	notification := domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Type:      notificationType,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: time.Now().UTC(),
	}
	if resourceType := strings.TrimSpace(req.ResourceType); resourceType != "" {
		notification.ResourceType = &resourceType
	}
	if resourceID := strings.TrimSpace(req.ResourceID); resourceID != "" {
		notification.ResourceID = &resourceID
	}

	if err := s.repo.Insert(ctx, s.db, &notification); err != nil {
		return domain.Notification{}, err
	}
	s.invalidateUnread(ctx, req.UserID)
	return notification, nil
}

func (s *Service) List(ctx context.Context, req domain.ListNotificationsRequest) (domain.ListNotificationsResponse, error) {
	if req.UserID == 0 {
		return domain.ListNotificationsResponse{}, domain.ErrInvalidUser
	}

	var cursor *domain.ListCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.ListCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		UserID:     req.UserID,
		UnreadOnly: req.UnreadOnly,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return domain.ListNotificationsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Notification) string {
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

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}

	resp := domain.ListNotificationsResponse{Notifications: notifications}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) MarkRead(ctx context.Context, userID snowflake.ID, id string) (domain.Notification, error) {
	if userID == 0 {
		return domain.Notification{}, domain.ErrInvalidUser
	}
	notificationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || notificationID == 0 {
		return domain.Notification{}, domain.ErrInvalidID
	}

	notification, err := s.repo.FindByID(ctx, s.db, notificationID)
	if err != nil {
		return domain.Notification{}, err
	}
	if notification == nil {
		return domain.Notification{}, domain.ErrNotFound
	}
	if notification.UserID != userID {
		return domain.Notification{}, domain.ErrNotOwner
	}

	// Marking twice is a no-op; the first read_at stands.
	if notification.ReadAt == nil {
		now := time.Now().UTC()
		if err := s.repo.MarkRead(ctx, s.db, notificationID, now); err != nil {
			return domain.Notification{}, err
		}
		notification.ReadAt = &now
		s.invalidateUnread(ctx, userID)
	}
	return *notification, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID snowflake.ID) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	if err := s.repo.MarkAllRead(ctx, s.db, userID, time.Now().UTC()); err != nil {
		return err
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

// UnreadCount serves the badge counter. The cached value may lag writes by
// up to the configured TTL, which the portal UI tolerates.
func (s *Service) UnreadCount(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID == 0 {
		return 0, domain.ErrInvalidUser
	}

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, s.unreadKey(userID)).Result(); err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, s.unreadKey(userID), count, s.unreadTTL()).Err(); err != nil {
			s.log.Warn("failed to cache unread count", zap.Error(err))
		}
	}
	return count, nil
}

func (s *Service) invalidateUnread(ctx context.Context, userID snowflake.ID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.unreadKey(userID)).Err(); err != nil {
		s.log.Warn("failed to invalidate unread count", zap.Error(err))
	}
}

func (s *Service) unreadKey(userID snowflake.ID) string {
	return "notification:unread:" + userID.String()
}

func (s *Service) unreadTTL() time.Duration {
	if s.portal == nil {
		return config.DefaultPortalConfig().UnreadCacheTTL
	}
	return s.portal.Get().UnreadCacheTTL
}
