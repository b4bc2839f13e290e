package service

import (
	"context"
	"testing"
	"time"

	"github.com/assocdesk/memberportal/internal/membership/domain"
	"github.com/stretchr/testify/assert"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
)

func TestApproveTransition(t *testing.T) {
	svc, conn := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	decided := approve(t, svc, app)

	assert.Equal(t, domain.StatusApproved, decided.Status)
	if assert.NotNil(t, decided.ApprovedBy) {
		assert.EqualValues(t, 900, *decided.ApprovedBy)
	}
	assert.NotNil(t, decided.ApprovedAt)
	assert.Nil(t, decided.RejectedBy)

	// The claim survives approval so the identity stays taken.
	var claim domain.IdentityClaim
	err := conn.Where("identity_number = ?", "1234567890123").First(&claim).Error
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, claim.Status)

	var logs []auditdomain.ActionLog
	assert.NoError(t, conn.Find(&logs).Error)
	if assert.Len(t, logs, 1) {
		assert.Equal(t, "application.approve", logs[0].Action)
		assert.EqualValues(t, 900, logs[0].AdminID)
		if assert.NotNil(t, logs[0].TargetID) {
			assert.Equal(t, app.ID.String(), *logs[0].TargetID)
		}
	}
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	_, err := svc.Transition(context.Background(), domain.TransitionRequest{
		MembershipType: domain.TypeOrdinary,
		ID:             app.ID.String(),
		Action:         domain.ActionReject,
		AdminID:        900,
		Reason:         "   ",
	})
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	// The failed attempt must leave the application untouched.
	got, err := svc.GetByID(context.Background(), domain.TypeOrdinary, app.ID.String(), domain.Viewer{UserID: 100})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestRejectReleasesIdentityForResubmission(t *testing.T) {
	svc, conn := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	decided := reject(t, svc, app, "missing registration papers")

	assert.Equal(t, domain.StatusRejected, decided.Status)
	if assert.NotNil(t, decided.RejectionReason) {
		assert.Equal(t, "missing registration papers", *decided.RejectionReason)
	}

	var claims int64
	conn.Model(&domain.IdentityClaim{}).Where("identity_number = ?", "1234567890123").Count(&claims)
	assert.Equal(t, int64(0), claims)

	// A fresh application may reuse the freed identity, even in another class.
	resubmitted := createApplication(t, svc, domain.TypeAssociate, 100, "1234567890123")
	assert.Equal(t, domain.StatusPending, resubmitted.Status)
}

func TestTransitionSameActionTwiceIsNoOp(t *testing.T) {
	svc, conn := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")
	first := approve(t, svc, app)
	second := approve(t, svc, app)

	assert.Equal(t, domain.StatusApproved, second.Status)
	if assert.NotNil(t, second.ApprovedAt) {
		assert.WithinDuration(t, *first.ApprovedAt, *second.ApprovedAt, time.Second)
	}

	// The replay must not mint a second audit entry.
	var logs int64
	conn.Model(&auditdomain.ActionLog{}).Count(&logs)
	assert.Equal(t, int64(1), logs)
}

func TestTransitionOppositeActionAfterDecision(t *testing.T) {
	svc, _ := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")
	approve(t, svc, app)

	_, err := svc.Transition(context.Background(), domain.TransitionRequest{
		MembershipType: domain.TypeOrdinary,
		ID:             app.ID.String(),
		Action:         domain.ActionReject,
		AdminID:        901,
		Reason:         "changed my mind",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
}

func TestTransitionUnknownApplication(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Transition(context.Background(), domain.TransitionRequest{
		MembershipType: domain.TypeOrdinary,
		ID:             "123456789",
		Action:         domain.ActionApprove,
		AdminID:        900,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionWrongMembershipType(t *testing.T) {
	svc, _ := newTestService(t)

	app := createApplication(t, svc, domain.TypeOrdinary, 100, "1234567890123")

	// The record exists but is keyed under another class path.
	_, err := svc.Transition(context.Background(), domain.TransitionRequest{
		MembershipType: domain.TypeIndividual,
		ID:             app.ID.String(),
		Action:         domain.ActionApprove,
		AdminID:        900,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
