package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/internal/bot/session"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func (r *Router) handleAdminButton(ctx context.Context, upd Update, user *models.User, sess *session.Session, action string, args []string) error {
	if !r.isAdmin(upd, sess) {
		return apperrors.New(apperrors.CodeForbidden, "admin access required")
	}

	switch action {
	case "admin_queue":
		proofs, err := r.deps.Payments.PendingProofs(ctx)
		if err != nil {
			return err
		}
		topUps, err := r.deps.Payments.PendingTopUps(ctx)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowReviewQueue(ctx, upd.PlatformID, proofs, topUps)

	case "admin_tickets":
		open, err := r.deps.Tickets.ListOpen(ctx)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowTickets(ctx, upd.PlatformID, open)

	case "approve_proof":
		proofID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		proof, err := r.deps.Payments.ApproveProof(ctx, proofID)
		if err != nil {
			return err
		}
		if err := r.deps.Presenter.Notify(ctx, upd.PlatformID, "Payment approved, order marked paid."); err != nil {
			return err
		}
		r.dispatchDelivery(ctx, proof.OrderID)
		return nil

	case "reject_proof":
		proofID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		sess.EnterStep(session.StepAwaitingRejectReason, session.StepData{
			RejectKind: session.RejectProof,
			RejectID:   proofID,
		})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Why is this payment rejected?")

	case "approve_topup":
		topUpID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if _, err := r.deps.Payments.ApproveTopUp(ctx, topUpID); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Top-up approved, wallet credited.")

	case "reject_topup":
		topUpID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		sess.EnterStep(session.StepAwaitingRejectReason, session.StepData{
			RejectKind: session.RejectTopUp,
			RejectID:   topUpID,
		})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Why is this top-up rejected?")

	default:
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Unknown admin action.")
	}
}

// handleAdminOrderStatus applies "/order <order-id> <status>" fulfilment
// edits: processing, shipped, delivered, completed, one step at a time.
func (r *Router) handleAdminOrderStatus(ctx context.Context, upd Update, sess *session.Session, text string) error {
	if !r.isAdmin(upd, sess) {
		return apperrors.New(apperrors.CodeForbidden, "admin access required")
	}

	fields := strings.Fields(text)
	if len(fields) != 3 {
		return apperrors.New(apperrors.CodeValidation, "usage: /order <order-id> <status>")
	}
	orderID, err := uuid.Parse(fields[1])
	if err != nil {
		return apperrors.New(apperrors.CodeValidation, "malformed order id")
	}
	status, err := enums.ParseOrderStatus(fields[2])
	if err != nil {
		return apperrors.New(apperrors.CodeValidation, "unknown status "+fields[2])
	}

	order, err := r.deps.Checkout.AdvanceStatus(ctx, orderID, status)
	if err != nil {
		return err
	}
	return r.deps.Presenter.Notify(ctx, upd.PlatformID,
		fmt.Sprintf("Order %s is now %s.", order.ID, order.Status))
}

// stepRejectReason finishes a rejection started by reject_proof/reject_topup.
func (r *Router) stepRejectReason(ctx context.Context, upd Update, sess *session.Session, reason string) error {
	if !r.isAdmin(upd, sess) {
		return apperrors.New(apperrors.CodeForbidden, "admin access required")
	}

	id, err := stepID(sess.Data.RejectID)
	if err != nil {
		return err
	}

	switch sess.Data.RejectKind {
	case session.RejectProof:
		if _, err := r.deps.Payments.RejectProof(ctx, id, reason); err != nil {
			return err
		}
	case session.RejectTopUp:
		if _, err := r.deps.Payments.RejectTopUp(ctx, id, reason); err != nil {
			return err
		}
	default:
		return apperrors.New(apperrors.CodeValidation, "this step has expired, start again from the menu")
	}

	sess.LeaveStep()
	if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
		return err
	}
	return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Rejection recorded, the user has been notified.")
}
