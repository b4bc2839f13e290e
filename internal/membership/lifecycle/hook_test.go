package lifecycle

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
	authrepository "github.com/assocdesk/memberportal/internal/auth/repository"
	authservice "github.com/assocdesk/memberportal/internal/auth/service"
	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
	notificationdomain "github.com/assocdesk/memberportal/internal/notification/domain"
	notificationrepository "github.com/assocdesk/memberportal/internal/notification/repository"
	notificationservice "github.com/assocdesk/memberportal/internal/notification/service"
)

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

type capturingEmail struct {
	mu   sync.Mutex
	sent []sentMail
}

func (c *capturingEmail) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (c *capturingEmail) all() []sentMail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMail(nil), c.sent...)
}

func newTestHook(t *testing.T) (membershipdomain.LifecycleHook, notificationdomain.Service, authdomain.User, *capturingEmail) {
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

	if err := conn.AutoMigrate(
		&notificationdomain.Notification{},
		&authdomain.User{},
		&authdomain.Session{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	notifications := notificationservice.New(notificationservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  notificationrepository.Provide(),
	})
	users := authservice.New(authservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  authrepository.Provide(),
	})

	owner, err := users.Register(context.Background(), authdomain.RegisterRequest{
		Email:    "applicant@example.com",
		Password: "correct horse battery",
		Name:     "Somchai",
	})
	if err != nil {
		t.Fatalf("failed to register owner: %v", err)
	}

	mail := &capturingEmail{}
	hook := New(Params{
		Log:           zap.NewNop(),
		Notifications: notifications,
		Users:         users,
		Email:         mail,
	})
	return hook, notifications, owner, mail
}

func ownerNotifications(t *testing.T, notifications notificationdomain.Service, userID snowflake.ID) []notificationdomain.Notification {
	t.Helper()
	resp, err := notifications.List(context.Background(), notificationdomain.ListNotificationsRequest{UserID: userID})
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	return resp.Notifications
}

func TestApplicationSubmitted(t *testing.T) {
	hook, notifications, owner, mail := newTestHook(t)

	hook.ApplicationSubmitted(context.Background(), membershipdomain.Application{
		ID:             42,
		MembershipType: membershipdomain.TypeOrdinary,
		UserID:         owner.ID,
		Status:         membershipdomain.StatusPending,
	})

	rows := ownerNotifications(t, notifications, owner.ID)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, "application.submitted", rows[0].Type)
		if assert.NotNil(t, rows[0].ResourceID) {
			assert.Equal(t, "42", *rows[0].ResourceID)
		}
	}

	// Submission receipts are in-portal only.
	assert.Empty(t, mail.all())
}

func TestApplicationDecidedApproved(t *testing.T) {
	hook, notifications, owner, mail := newTestHook(t)

	hook.ApplicationDecided(context.Background(), membershipdomain.Application{
		ID:             42,
		MembershipType: membershipdomain.TypeOrdinary,
		UserID:         owner.ID,
		Status:         membershipdomain.StatusApproved,
	})

	rows := ownerNotifications(t, notifications, owner.ID)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, "application.approved", rows[0].Type)
	}

	sent := mail.all()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, []string{"applicant@example.com"}, sent[0].To)
		assert.Contains(t, sent[0].Subject, "approved")
	}
}

func TestApplicationDecidedRejected(t *testing.T) {
	hook, notifications, owner, mail := newTestHook(t)

	reason := "missing registration papers"
	hook.ApplicationDecided(context.Background(), membershipdomain.Application{
		ID:              42,
		MembershipType:  membershipdomain.TypeAssociate,
		UserID:          owner.ID,
		Status:          membershipdomain.StatusRejected,
		RejectionReason: &reason,
	})

	rows := ownerNotifications(t, notifications, owner.ID)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, "application.rejected", rows[0].Type)
		assert.Contains(t, rows[0].Body, reason)
	}

	sent := mail.all()
	if assert.Len(t, sent, 1) {
		assert.Contains(t, sent[0].Body, reason)
	}
}

func TestApplicationDecidedUnknownOwner(t *testing.T) {
	hook, notifications, _, mail := newTestHook(t)

	// A vanished owner still gets the notification row; only the email is
	// skipped. The hook must not panic or error.
	ghost := snowflake.ID(999)
	hook.ApplicationDecided(context.Background(), membershipdomain.Application{
		ID:             43,
		MembershipType: membershipdomain.TypeOrdinary,
		UserID:         ghost,
		Status:         membershipdomain.StatusApproved,
	})

	rows := ownerNotifications(t, notifications, ghost)
	assert.Len(t, rows, 1)
	assert.Empty(t, mail.all())
}

func TestDecisionMessageMentionsMembershipType(t *testing.T) {
	hook, notifications, owner, _ := newTestHook(t)

	hook.ApplicationDecided(context.Background(), membershipdomain.Application{
		ID:             44,
		MembershipType: membershipdomain.TypeTradeAssociation,
		UserID:         owner.ID,
		Status:         membershipdomain.StatusApproved,
	})

	rows := ownerNotifications(t, notifications, owner.ID)
	if assert.Len(t, rows, 1) {
		assert.True(t, strings.Contains(rows[0].Body, "trade_association"),
			"body should name the membership class: %s", rows[0].Body)
		// CreatedAt is stamped by the notification service.
		assert.WithinDuration(t, time.Now().UTC(), rows[0].CreatedAt, 5*time.Second)
	}
}
