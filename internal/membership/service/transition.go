package service

import (
	"context"
	"strings"
	"time"

	"github.com/assocdesk/memberportal/internal/membership/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Transition applies an administrator decision to a pending application.
// The row is locked for the duration of the transaction, so two admins
// deciding the same record serialize: the first wins, the second either
// no-ops (same action) or gets ErrAlreadyDecided (opposite action). The
// status change, claim maintenance and action log commit atomically.
func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (domain.Application, error) {
	appID, err := s.parseID(req.ID)
	if err != nil {
		return domain.Application{}, err
	}
	if req.AdminID == 0 {
		return domain.Application{}, domain.ErrNotOwner
	}
	if _, ok := domain.ParseTransitionAction(string(req.Action)); !ok {
		return domain.Application{}, domain.ErrInvalidAction
	}

	reason := strings.TrimSpace(req.Reason)
	if req.Action == domain.ActionReject && reason == "" {
		return domain.Application{}, domain.ErrReasonRequired
	}

	var (
		decided domain.Application
		noop    bool
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		app, err := s.repo.FindByIDForUpdate(ctx, tx, req.MembershipType, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrNotFound
		}

		if app.Status.Terminal() {
			// Repeating the decision already on record is a retry, not a
			// conflict. Reversing it is.
			if (app.Status == domain.StatusApproved && req.Action == domain.ActionApprove) ||
				(app.Status == domain.StatusRejected && req.Action == domain.ActionReject) {
				decided = *app
				noop = true
				return nil
			}
			return domain.ErrAlreadyDecided
		}

		now := time.Now().UTC()
		adminID := req.AdminID
		if note := strings.TrimSpace(req.Note); note != "" {
			app.AdminNote = &note
		}

		switch req.Action {
		case domain.ActionApprove:
			app.Status = domain.StatusApproved
			app.ApprovedBy = &adminID
			app.ApprovedAt = &now
			if err := s.repo.UpdateClaimStatus(ctx, tx, app.IdentityNumber, domain.StatusApproved); err != nil {
				return err
			}
		case domain.ActionReject:
			app.Status = domain.StatusRejected
			app.RejectedBy = &adminID
			app.RejectedAt = &now
			app.RejectionReason = &reason
			// Releasing the claim frees the identity for a fresh submission.
			if err := s.repo.DeleteClaim(ctx, tx, app.IdentityNumber, app.ID); err != nil {
				return err
			}
		}
		app.UpdatedAt = now

		if err := s.repo.UpdateDecision(ctx, tx, app); err != nil {
			return err
		}

		targetID := app.ID.String()
		metadata := map[string]any{
			"membership_type": string(app.MembershipType),
			"identity_number": app.IdentityNumber,
		}
		if req.Action == domain.ActionReject {
			metadata["reason"] = reason
		}
		if err := s.audit.RecordTx(ctx, tx, req.AdminID, "application."+string(req.Action), "application", &targetID, metadata); err != nil {
			return err
		}

		decided = *app
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}

	if !noop {
		s.log.Info("application decided",
			zap.String("application_id", decided.ID.String()),
			zap.String("membership_type", string(decided.MembershipType)),
			zap.String("status", string(decided.Status)),
			zap.String("admin_id", req.AdminID.String()),
		)
		if s.hook != nil {
			// Post-commit, best-effort. Detached from the request context so
			// the caller's cancellation does not abort delivery.
			go s.hook.ApplicationDecided(context.WithoutCancel(ctx), decided)
		}
	}

	return decided, nil
}
