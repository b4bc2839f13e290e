package service

import (
	"context"
	"testing"
	"time"

	"github.com/assocdesk/memberportal/internal/notification/domain"
	"github.com/assocdesk/memberportal/internal/notification/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&domain.Notification{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	// No redis client wired: counts come straight from the database.
	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func notify(t *testing.T, svc domain.Service, userID snowflake.ID, notificationType string) domain.Notification {
	t.Helper()
	notification, err := svc.Notify(context.Background(), domain.CreateNotificationRequest{
		UserID: userID,
		Type:   notificationType,
		Title:  "Application update",
		Body:   "Your application status changed.",
	})
	if err != nil {
		t.Fatalf("failed to notify: %v", err)
	}
	return notification
}

func TestNotifyValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Notify(context.Background(), domain.CreateNotificationRequest{Type: "application.approved"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = svc.Notify(context.Background(), domain.CreateNotificationRequest{UserID: 100, Type: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestUnreadCount(t *testing.T) {
	svc := newTestService(t)

	count, err := svc.UnreadCount(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	notify(t, svc, 100, "application.approved")
	notify(t, svc, 100, "application.rejected")
	notify(t, svc, 200, "application.approved")

	count, err = svc.UnreadCount(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc := newTestService(t)

	notification := notify(t, svc, 100, "application.approved")

	first, err := svc.MarkRead(context.Background(), 100, notification.ID.String())
	assert.NoError(t, err)
	assert.NotNil(t, first.ReadAt)

	time.Sleep(10 * time.Millisecond)

	second, err := svc.MarkRead(context.Background(), 100, notification.ID.String())
	assert.NoError(t, err)
	if assert.NotNil(t, second.ReadAt) {
		assert.WithinDuration(t, *first.ReadAt, *second.ReadAt, 5*time.Millisecond)
	}

	count, err := svc.UnreadCount(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	svc := newTestService(t)

	notification := notify(t, svc, 100, "application.approved")

	_, err := svc.MarkRead(context.Background(), 200, notification.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = svc.MarkRead(context.Background(), 100, "123456789")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	svc := newTestService(t)

	notify(t, svc, 100, "application.approved")
	notify(t, svc, 100, "application.rejected")
	other := notify(t, svc, 200, "application.approved")

	assert.NoError(t, svc.MarkAllRead(context.Background(), 100))

	count, err := svc.UnreadCount(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Another user's notifications are untouched.
	count, err = svc.UnreadCount(context.Background(), other.UserID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListUnreadOnly(t *testing.T) {
	svc := newTestService(t)

	read := notify(t, svc, 100, "application.approved")
	notify(t, svc, 100, "application.rejected")

	_, err := svc.MarkRead(context.Background(), 100, read.ID.String())
	assert.NoError(t, err)

	resp, err := svc.List(context.Background(), domain.ListNotificationsRequest{
		UserID:     100,
		UnreadOnly: true,
	})
	assert.NoError(t, err)
	if assert.Len(t, resp.Notifications, 1) {
		assert.Nil(t, resp.Notifications[0].ReadAt)
	}

	resp, err = svc.List(context.Background(), domain.ListNotificationsRequest{UserID: 100})
	assert.NoError(t, err)
	assert.Len(t, resp.Notifications, 2)
}
