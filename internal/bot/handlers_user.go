package bot

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/internal/bot/session"
	"github.com/angelmondragon/chatstore-backend/internal/payments"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

const walletHistoryLimit = 10

func (r *Router) handleUserButton(ctx context.Context, upd Update, user *models.User, sess *session.Session, action string, args []string) error {
	switch action {
	case "menu", "catalog":
		return r.showCatalog(ctx, upd.PlatformID)

	case "category":
		categoryID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		products, err := r.deps.Catalog.ListProducts(ctx, categoryID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowProducts(ctx, upd.PlatformID, products)

	case "product":
		productID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		product, err := r.deps.Catalog.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowProduct(ctx, upd.PlatformID, product)

	case "add":
		productID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if err := r.deps.Cart.Add(ctx, user.ID, productID, 1); err != nil {
			return err
		}
		return r.showCart(ctx, upd.PlatformID, user)

	case "cart":
		return r.showCart(ctx, upd.PlatformID, user)

	case "cart_inc":
		productID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if err := r.deps.Cart.Increment(ctx, user.ID, productID); err != nil {
			return err
		}
		return r.showCart(ctx, upd.PlatformID, user)

	case "cart_dec":
		productID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if err := r.deps.Cart.Decrement(ctx, user.ID, productID); err != nil {
			return err
		}
		return r.showCart(ctx, upd.PlatformID, user)

	case "cart_del":
		productID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if err := r.deps.Cart.Remove(ctx, user.ID, productID); err != nil {
			return err
		}
		return r.showCart(ctx, upd.PlatformID, user)

	case "cart_clear":
		if err := r.deps.Cart.Clear(ctx, user.ID); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Cart cleared.")

	case "checkout":
		order, err := r.deps.Checkout.Checkout(ctx, user.ID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowOrder(ctx, upd.PlatformID, order)

	case "coupon":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		sess.EnterStep(session.StepAwaitingCouponCode, session.StepData{OrderID: orderID})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Send the coupon code.")

	case "balance":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		order, err := r.deps.Checkout.ApplyBalance(ctx, user.ID, orderID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowOrder(ctx, upd.PlatformID, order)

	case "confirm":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		order, err := r.deps.Checkout.Confirm(ctx, user.ID, orderID)
		if err != nil {
			return err
		}
		if err := r.deps.Presenter.ShowOrder(ctx, upd.PlatformID, order); err != nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			r.dispatchDelivery(ctx, order.ID)
		}
		return nil

	case "cancel":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if err := r.deps.Checkout.Cancel(ctx, user.ID, orderID); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Order cancelled.")

	case "pay":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		order, err := r.deps.Checkout.Get(ctx, user.ID, orderID)
		if err != nil {
			return err
		}
		methods, err := r.deps.Payments.ListMethods(ctx)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowPaymentMethods(ctx, upd.PlatformID, order, methods)

	case "method":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		methodID, err := argUUID(args, 1)
		if err != nil {
			return err
		}
		method, err := r.deps.Payments.GetMethod(ctx, methodID)
		if err != nil {
			return err
		}
		sess.EnterStep(session.StepAwaitingPaymentProof, session.StepData{
			OrderID:  orderID,
			MethodID: method.ID,
		})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID,
			method.Instructions+"\n\nSend a photo of your payment receipt when done.")

	case "orders":
		list, err := r.deps.Checkout.ListOrders(ctx, user.ID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowOrders(ctx, upd.PlatformID, list)

	case "order":
		orderID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		order, err := r.deps.Checkout.Get(ctx, user.ID, orderID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowOrder(ctx, upd.PlatformID, order)

	case "wallet":
		balance, err := r.deps.Wallet.Balance(ctx, user.ID)
		if err != nil {
			return err
		}
		history, err := r.deps.Wallet.History(ctx, user.ID, walletHistoryLimit)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowWallet(ctx, upd.PlatformID, balance, history)

	case "topup":
		sess.EnterStep(session.StepAwaitingTopUpAmount, session.StepData{})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "How much would you like to add to your wallet?")

	case "tickets":
		list, err := r.deps.Tickets.ListByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		return r.deps.Presenter.ShowTickets(ctx, upd.PlatformID, list)

	case "ticket_new":
		sess.EnterStep(session.StepAwaitingTicketSubject, session.StepData{})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "What is the subject of your ticket?")

	case "ticket_reply":
		ticketID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		sess.EnterStep(session.StepAwaitingTicketReply, session.StepData{TicketID: ticketID})
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Send your reply.")

	case "ticket_close":
		ticketID, err := argUUID(args, 0)
		if err != nil {
			return err
		}
		if err := r.deps.Tickets.Close(ctx, ticketID); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Ticket closed.")

	default:
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Unknown action.")
	}
}

// handleStepText consumes free text for the step the user is parked on.
// Validation failures keep the step so the user can retry in place.
func (r *Router) handleStepText(ctx context.Context, upd Update, user *models.User, sess *session.Session, text string) error {
	switch sess.Step {
	case session.StepAwaitingCouponCode:
		orderID, err := stepID(sess.Data.OrderID)
		if err != nil {
			return err
		}
		order, err := r.deps.Checkout.ApplyCoupon(ctx, user.ID, orderID, text)
		if err != nil {
			return err
		}
		sess.LeaveStep()
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.deps.Presenter.ShowOrder(ctx, upd.PlatformID, order)

	case session.StepAwaitingTopUpAmount:
		amount, err := parseAmount(text)
		if err != nil {
			return err
		}
		topUp, err := r.deps.Payments.RequestTopUp(ctx, user.ID, amount, nil)
		if err != nil {
			return err
		}
		sess.EnterStep(session.StepAwaitingTopUpProof, session.StepData{TopUpID: topUp.ID})
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Send a photo of your transfer receipt.")

	case session.StepAwaitingTicketSubject:
		if text == "" {
			return apperrors.New(apperrors.CodeValidation, "subject cannot be empty")
		}
		sess.EnterStep(session.StepAwaitingTicketMessage, session.StepData{TicketSubject: text})
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Now describe the problem.")

	case session.StepAwaitingTicketMessage:
		subject := sess.Data.TicketSubject
		ticket, err := r.deps.Tickets.Open(ctx, user.ID, subject, text)
		if err != nil {
			return err
		}
		sess.LeaveStep()
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID,
			"Ticket \""+ticket.Subject+"\" opened. We will get back to you.")

	case session.StepAwaitingTicketReply:
		ticketID, err := stepID(sess.Data.TicketID)
		if err != nil {
			return err
		}
		sender := enums.TicketSenderUser
		if r.isAdmin(upd, sess) {
			sender = enums.TicketSenderAdmin
		}
		if _, err := r.deps.Tickets.Reply(ctx, ticketID, sender, text); err != nil {
			return err
		}
		sess.LeaveStep()
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Reply sent.")

	case session.StepAwaitingRejectReason:
		return r.stepRejectReason(ctx, upd, sess, text)

	case session.StepAwaitingPaymentProof, session.StepAwaitingTopUpProof:
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Please send the receipt as a photo.")

	default:
		sess.LeaveStep()
		if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
			return err
		}
		return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Let's start over. Use the menu below.")
	}
}

func (r *Router) stepPaymentProof(ctx context.Context, upd Update, user *models.User, sess *session.Session) error {
	orderID, err := stepID(sess.Data.OrderID)
	if err != nil {
		return err
	}
	input := payments.SubmitProofInput{
		UserID:      user.ID,
		OrderID:     orderID,
		ArtifactRef: upd.FileRef,
	}
	if sess.Data.MethodID != uuid.Nil {
		methodID := sess.Data.MethodID
		input.MethodID = &methodID
	}
	if _, err := r.deps.Payments.SubmitProof(ctx, input); err != nil {
		return err
	}
	sess.LeaveStep()
	if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
		return err
	}
	return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Receipt received. We will review it shortly.")
}

func (r *Router) stepTopUpProof(ctx context.Context, upd Update, user *models.User, sess *session.Session) error {
	topUpID, err := stepID(sess.Data.TopUpID)
	if err != nil {
		return err
	}
	if _, err := r.deps.Payments.AttachTopUpProof(ctx, topUpID, user.ID, upd.FileRef); err != nil {
		return err
	}
	sess.LeaveStep()
	if err := r.deps.Sessions.Save(ctx, upd.PlatformID, sess); err != nil {
		return err
	}
	return r.deps.Presenter.Notify(ctx, upd.PlatformID, "Receipt received. Your wallet will be credited after review.")
}

func (r *Router) showCart(ctx context.Context, platformID int64, user *models.User) error {
	summary, err := r.deps.Cart.Summary(ctx, user.ID)
	if err != nil {
		return err
	}
	return r.deps.Presenter.ShowCart(ctx, platformID, summary)
}

// dispatchDelivery is best effort: a delivery failure already raised an
// admin obligation event, so the user flow keeps going.
func (r *Router) dispatchDelivery(ctx context.Context, orderID uuid.UUID) {
	if err := r.deps.Delivery.DispatchOrder(ctx, orderID); err != nil && r.deps.Logg != nil {
		r.deps.Logg.Error(ctx, "delivery dispatch failed", err)
	}
}

func argUUID(args []string, idx int) (uuid.UUID, error) {
	if idx >= len(args) {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation, "malformed button")
	}
	id, err := uuid.Parse(args[idx])
	if err != nil {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation, "malformed button")
	}
	return id, nil
}

func parseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(text, "$")))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "send a positive amount, e.g. 25.00")
	}
	return amount.Round(2), nil
}

// stepID guards a step payload id: a zero id means the session was rebuilt
// (expiry, restart) and the flow must be restarted from the menu.
func stepID(id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation, "this step has expired, start again from the menu")
	}
	return id, nil
}
