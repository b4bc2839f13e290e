package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assocdesk/memberportal/internal/membership/domain"
	"github.com/assocdesk/memberportal/internal/membership/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
	auditrepository "github.com/assocdesk/memberportal/internal/audit/repository"
	auditservice "github.com/assocdesk/memberportal/internal/audit/service"
)

// channelHook records lifecycle events so tests can wait for the
// fire-and-forget goroutine.
type channelHook struct {
	submitted chan domain.Application
	decided   chan domain.Application
}

func newChannelHook() *channelHook {
	return &channelHook{
		submitted: make(chan domain.Application, 8),
		decided:   make(chan domain.Application, 8),
	}
}

func (h *channelHook) ApplicationSubmitted(ctx context.Context, app domain.Application) {
	h.submitted <- app
}

func (h *channelHook) ApplicationDecided(ctx context.Context, app domain.Application) {
	h.decided <- app
}

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	svc, conn := newTestServiceWithHook(t, nil)
	return svc, conn
}

func newTestServiceWithHook(t *testing.T, hook domain.LifecycleHook) (domain.Service, *gorm.DB) {
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
		&domain.Application{},
		&domain.IdentityClaim{},
		&auditdomain.ActionLog{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	audit := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Audit: audit,
		Hook:  hook,
	})
	return svc, conn
}

func createApplication(t *testing.T, svc domain.Service, membershipType domain.MembershipType, userID snowflake.ID, identity string) domain.Application {
	t.Helper()
	app, err := svc.Create(context.Background(), domain.CreateApplicationRequest{
		MembershipType: membershipType,
		UserID:         userID,
		IdentityNumber: identity,
		Payload:        map[string]any{"company_name": "Acme Industrial"},
	})
	if err != nil {
		t.Fatalf("failed to create application: %v", err)
	}
	return app
}

func TestCreateApplicationStartsPending(t *testing.T) {
	svc, conn := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	assert.Equal(t, domain.StatusPending, app.Status)
	assert.Equal(t, domain.TypeOrdinary, app.MembershipType)

	var claims int64
	conn.Model(&domain.IdentityClaim{}).Where("identity_number = ?", "1234567890123").Count(&claims)
	assert.Equal(t, int64(1), claims)
}

func TestCreateRejectsMalformedIdentityNumber(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateApplicationRequest{
		MembershipType: domain.TypeOrdinary,
		UserID:         100,
		IdentityNumber: "12345",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentityNumber)

	_, err = svc.Create(context.Background(), domain.CreateApplicationRequest{
		MembershipType: domain.TypeOrdinary,
		UserID:         100,
		IdentityNumber: "12345678901ab",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentityNumber)
}

func TestCreateDuplicateIdentityConflictsAcrossTypes(t *testing.T) {
	svc, _ := newTestService(t)

	createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	// Same identity under a different membership class must still collide.
	_, err := svc.Create(context.Background(), domain.CreateApplicationRequest{
		MembershipType: domain.TypeAssociate,
		UserID:         200,
		IdentityNumber: "1234567890123",
	})

	var conflict *domain.IdentityConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected IdentityConflictError, got %v", err)
	}
	assert.Equal(t, domain.TypeOrdinary, conflict.ConflictType)
	assert.Equal(t, domain.StatusPending, conflict.ConflictStatus)
}

func TestCheckIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CheckIdentity(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentityNumber)

	check, err := svc.CheckIdentity(context.Background(), "1234567890123")
	assert.NoError(t, err)
	assert.True(t, check.Available)

	createApplication(t, svc, domain.TypeIndividual, 100, "1234567890123")

	check, err = svc.CheckIdentity(context.Background(), "1234567890123")
	assert.NoError(t, err)
	assert.False(t, check.Available)
	if assert.NotNil(t, check.ConflictType) {
		assert.Equal(t, domain.TypeIndividual, *check.ConflictType)
	}
	if assert.NotNil(t, check.ConflictStatus) {
		assert.Equal(t, domain.StatusPending, *check.ConflictStatus)
	}
}

func TestGetByIDOwnership(t *testing.T) {
	svc, _ := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	_, err := svc.GetByID(context.Background(), domain.TypeOrdinary, app.ID.String(), domain.Viewer{UserID: 200})
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	got, err := svc.GetByID(context.Background(), domain.TypeOrdinary, app.ID.String(), domain.Viewer{UserID: 100})
	assert.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)

	got, err = svc.GetByID(context.Background(), domain.TypeOrdinary, app.ID.String(), domain.Viewer{UserID: 999, Admin: true})
	assert.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)
}

func TestUpdateApprovedApplicationIsImmutable(t *testing.T) {
	svc, _ := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")
	approve(t, svc, app)

	_, err := svc.Update(context.Background(), domain.UpdateApplicationRequest{
		MembershipType: domain.TypeOrdinary,
		ID:             app.ID.String(),
		Viewer:         domain.Viewer{UserID: 100},
		Payload:        map[string]any{"company_name": "Changed"},
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
}

func TestDeleteOnlyAllowedForRejected(t *testing.T) {
	svc, _ := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	err := svc.Delete(context.Background(), domain.TypeOrdinary, app.ID.String(), 100)
	assert.ErrorIs(t, err, domain.ErrNotRejected)

	reject(t, svc, app, "incomplete documents")

	err = svc.Delete(context.Background(), domain.TypeOrdinary, app.ID.String(), 200)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	err = svc.Delete(context.Background(), domain.TypeOrdinary, app.ID.String(), 100)
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), domain.TypeOrdinary, app.ID.String(), domain.Viewer{UserID: 100})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateEmitsSubmittedEvent(t *testing.T) {
	hook := newChannelHook()
	svc, _ := newTestServiceWithHook(t, hook)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	select {
	case submitted := <-hook.submitted:
		assert.Equal(t, app.ID, submitted.ID)
		assert.Equal(t, domain.StatusPending, submitted.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("submission event not delivered")
	}

	// A failed create must not emit anything.
	_, err := svc.Create(context.Background(), domain.CreateApplicationRequest{
		MembershipType: domain.TypeAssociate,
		UserID:         200,
		IdentityNumber: "1234567890123",
	})
	assert.Error(t, err)
	select {
	case <-hook.submitted:
		t.Fatal("conflicting create must not emit a submission event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransitionEmitsDecidedEvent(t *testing.T) {
	hook := newChannelHook()
	svc, _ := newTestServiceWithHook(t, hook)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")
	<-hook.submitted

	approve(t, svc, app)

	select {
	case decided := <-hook.decided:
		assert.Equal(t, app.ID, decided.ID)
		assert.Equal(t, domain.StatusApproved, decided.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("decision event not delivered")
	}

	// The no-op replay must not emit a second event.
	approve(t, svc, app)
	select {
	case <-hook.decided:
		t.Fatal("replayed decision must not emit an event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestArchiveApplication(t *testing.T) {
	svc, conn := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	// Pending records cannot be hidden from the review queue.
	_, err := svc.Archive(context.Background(), domain.TypeOrdinary, app.ID.String(), 900)
	assert.ErrorIs(t, err, domain.ErrNotDecided)

	approve(t, svc, app)

	archived, err := svc.Archive(context.Background(), domain.TypeOrdinary, app.ID.String(), 900)
	assert.NoError(t, err)
	assert.True(t, archived.Archived)

	var logs int64
	conn.Model(&auditdomain.ActionLog{}).Where("action = ?", "application.archive").Count(&logs)
	assert.Equal(t, int64(1), logs)

	// Archiving again is a no-op and mints no second audit entry.
	_, err = svc.Archive(context.Background(), domain.TypeOrdinary, app.ID.String(), 900)
	assert.NoError(t, err)
	conn.Model(&auditdomain.ActionLog{}).Where("action = ?", "application.archive").Count(&logs)
	assert.Equal(t, int64(1), logs)

	defaultList, err := svc.List(context.Background(), domain.ListApplicationsRequest{})
	assert.NoError(t, err)
	assert.Empty(t, defaultList.Applications)

	archivedList, err := svc.List(context.Background(), domain.ListApplicationsRequest{IncludeArchived: true})
	assert.NoError(t, err)
	assert.Len(t, archivedList.Applications, 1)
}

func TestListCursorKeepsSubsecondOrder(t *testing.T) {
	svc, conn := newTestService(t)

	first := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")
	second := createApplication(t, svc, domain.TypeAssociate, 200, "2234567890123")
	third := createApplication(t, svc, domain.TypeIndividual, 300, "3234567890123")

	// Three rows inside the same wall-clock second, differing only in the
	// fractional part.
	base := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	for i, app := range []domain.Application{first, second, third} {
		err := conn.Exec(
			`UPDATE applications SET created_at = ? WHERE id = ?`,
			base.Add(time.Duration(i+1)*100*time.Millisecond),
			app.ID,
		).Error
		assert.NoError(t, err)
	}

	seen := map[string]bool{}
	token := ""
	for range 5 {
		req := domain.ListApplicationsRequest{}
		req.PageToken = token
		req.PageSize = 1
		resp, err := svc.List(context.Background(), req)
		assert.NoError(t, err)
		for _, app := range resp.Applications {
			assert.False(t, seen[app.ID.String()], "row %s returned twice", app.ID)
			seen[app.ID.String()] = true
		}
		if !resp.HasMore {
			break
		}
		token = resp.NextPageToken
	}
	assert.Len(t, seen, 3)
}

func approve(t *testing.T, svc domain.Service, app domain.Application) domain.Application {
	t.Helper()
	decided, err := svc.Transition(context.Background(), domain.TransitionRequest{
		MembershipType: app.MembershipType,
		ID:             app.ID.String(),
		Action:         domain.ActionApprove,
		AdminID:        900,
	})
	if err != nil {
		t.Fatalf("failed to approve: %v", err)
	}
	return decided
}

func reject(t *testing.T, svc domain.Service, app domain.Application, reason string) domain.Application {
	t.Helper()
	decided, err := svc.Transition(context.Background(), domain.TransitionRequest{
		MembershipType: app.MembershipType,
		ID:             app.ID.String(),
		Action:         domain.ActionReject,
		AdminID:        900,
		Reason:         reason,
	})
	if err != nil {
		t.Fatalf("failed to reject: %v", err)
	}
	return decided
}
