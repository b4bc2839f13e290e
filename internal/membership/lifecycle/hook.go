package lifecycle

import (
	"context"
	"fmt"

	"github.com/assocdesk/memberportal/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"

	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
	notificationdomain "github.com/assocdesk/memberportal/internal/notification/domain"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Notifications notificationdomain.Service
	Users         authdomain.Service
	Email         email.Provider
}

// Hook delivers the applicant-facing side of application events: an
// in-portal notification, plus an email for decisions. It runs after the
// triggering write committed, so every failure here is logged and
// swallowed.
type Hook struct {
	log           *zap.Logger
	notifications notificationdomain.Service
	users         authdomain.Service
	email         email.Provider
}

func New(p Params) membershipdomain.LifecycleHook {
	return &Hook{
		log:           p.Log.Named("membership.lifecycle"),
		notifications: p.Notifications,
		users:         p.Users,
		email:         p.Email,
	}
}

func (h *Hook) ApplicationSubmitted(ctx context.Context, app membershipdomain.Application) {
	h.notify(ctx, app, "application.submitted",
		"Your membership application was received",
		fmt.Sprintf("Your %s membership application has been received and is pending review.", app.MembershipType),
	)
}

func (h *Hook) ApplicationDecided(ctx context.Context, app membershipdomain.Application) {
	title, body := h.decisionMessage(app)
	h.notify(ctx, app, "application."+string(app.Status), title, body)

	user, err := h.users.GetUser(ctx, app.UserID)
	if err != nil {
		h.log.Warn("failed to resolve applicant for decision email",
			zap.String("application_id", app.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := h.email.Send(ctx, []string{user.Email}, title, "<p>"+body+"</p>"); err != nil {
		h.log.Warn("failed to send decision email",
			zap.String("application_id", app.ID.String()),
			zap.Error(err),
		)
	}
}

func (h *Hook) notify(ctx context.Context, app membershipdomain.Application, eventType, title, body string) {
	if _, err := h.notifications.Notify(ctx, notificationdomain.CreateNotificationRequest{
		UserID:       app.UserID,
		Type:         eventType,
		Title:        title,
		Body:         body,
		ResourceType: "application",
		ResourceID:   app.ID.String(),
	}); err != nil {
		h.log.Warn("failed to create application notification",
			zap.String("application_id", app.ID.String()),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

func (h *Hook) decisionMessage(app membershipdomain.Application) (string, string) {
	switch app.Status {
	case membershipdomain.StatusApproved:
		return "Your membership application was approved",
			fmt.Sprintf("Your %s membership application has been approved. Welcome aboard.", app.MembershipType)
	case membershipdomain.StatusRejected:
		reason := ""
		if app.RejectionReason != nil {
			reason = *app.RejectionReason
		}
		return "Your membership application was not approved",
			fmt.Sprintf("Your %s membership application was not approved. Reason: %s. You may revise and submit a new application.", app.MembershipType, reason)
	default:
		return "Your membership application was updated",
			fmt.Sprintf("Your %s membership application status is now %s.", app.MembershipType, app.Status)
	}
}

var Module = fx.Module("membership.lifecycle", fx.Provide(New))
