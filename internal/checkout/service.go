package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/internal/catalog"
	"github.com/angelmondragon/chatstore-backend/internal/coupons"
	"github.com/angelmondragon/chatstore-backend/internal/ledger"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/internal/rewards"
	"github.com/angelmondragon/chatstore-backend/internal/settings"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox/payloads"
)

const defaultListLimit = 20

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives an order from cart snapshot to confirmation. Discounts and
// balance application are staged on the pending order row and only become
// binding at Confirm, which commits stock, coupon use and wallet debit in a
// single transaction gated by the pending->confirmed transition.
type Service interface {
	// Checkout freezes the cart into a pending order. The cart itself is
	// kept until confirmation so a cancelled checkout loses nothing.
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	// ApplyCoupon stages a discount on the pending order. Re-applying a
	// different code overwrites the previous one; no stacking.
	ApplyCoupon(ctx context.Context, userID, orderID uuid.UUID, code string) (*models.Order, error)
	// ApplyBalance stages min(wallet balance, remaining payable) on the
	// pending order. Nothing is debited until Confirm.
	ApplyBalance(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Confirm(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) error
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	// AdvanceStatus moves a confirmed order one step along the fulfilment arc
	// (confirmed -> processing -> shipped -> delivered -> completed). Admin
	// operation; callers authorize.
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error)
}

// Deps collects the collaborators the checkout flow composes.
type Deps struct {
	Orders   orders.Repository
	Cart     cart.Service
	CartRepo cart.Repository
	Catalog  catalog.Repository
	Coupons  coupons.Service
	Wallet   ledger.Service
	Rewards  rewards.Service
	Settings settings.Service
	Events   *outbox.Service
	Tx       txRunner
	Metrics  *metrics.BotMetrics
}

type service struct {
	deps Deps
}

// NewService validates and wires the checkout dependencies.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.CartRepo == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog repository required")
	case deps.Coupons == nil:
		return nil, fmt.Errorf("coupons service required")
	case deps.Wallet == nil:
		return nil, fmt.Errorf("ledger service required")
	case deps.Rewards == nil:
		return nil, fmt.Errorf("rewards service required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case deps.Events == nil:
		return nil, fmt.Errorf("outbox service required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{deps: deps}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	summary, err := s.deps.Cart.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyCart, "cart is empty")
	}

	minSubtotal, err := s.deps.Settings.MinOrderSubtotal(ctx)
	if err != nil {
		return nil, err
	}
	if summary.Subtotal.LessThan(minSubtotal) {
		return nil, apperrors.New(apperrors.CodeMinimumNotMet,
			fmt.Sprintf("order minimum is %s", minSubtotal.StringFixed(2)))
	}

	items := make([]models.OrderItem, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		if !line.Product.InStock(line.Qty) {
			return nil, apperrors.New(apperrors.CodeInsufficientStock,
				fmt.Sprintf("not enough stock for %s", line.Product.Name))
		}
		items = append(items, models.OrderItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			UnitPrice: line.Product.Price,
			Qty:       line.Qty,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        userID,
		ItemsJSON:     itemsJSON,
		Total:         summary.Subtotal,
		Discount:      decimal.Zero,
		BalanceUsed:   decimal.Zero,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
	}
	if err := s.deps.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ApplyCoupon(ctx context.Context, userID, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.pendingOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.deps.Coupons.Validate(ctx, code)
	if err != nil {
		return nil, err
	}

	discount := coupons.Discount(order.Total, coupon.DiscountPercent)

	// Balance may already be staged; shrink it so the combination never
	// exceeds the order total.
	balanceUsed := order.BalanceUsed
	if remaining := order.Total.Sub(discount); balanceUsed.GreaterThan(remaining) {
		balanceUsed = remaining
	}

	ok, err := s.deps.Orders.UpdatePending(ctx, order.ID, map[string]any{
		"coupon_code":  coupon.Code,
		"discount":     discount,
		"balance_used": balanceUsed,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeAlreadyProcessed, "order is no longer pending")
	}

	order.CouponCode = &coupon.Code
	order.Discount = discount
	order.BalanceUsed = balanceUsed
	return order, nil
}

func (s *service) ApplyBalance(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.pendingOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	balance, err := s.deps.Wallet.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := order.Total.Sub(order.Discount)
	applied := balance
	if applied.GreaterThan(remaining) {
		applied = remaining
	}
	if applied.IsNegative() {
		applied = decimal.Zero
	}

	ok, err := s.deps.Orders.UpdatePending(ctx, order.ID, map[string]any{
		"balance_used": applied,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeAlreadyProcessed, "order is no longer pending")
	}

	order.BalanceUsed = applied
	return order, nil
}

// Confirm is the only place stock, coupon use and wallet balance are
// committed. The pending->confirmed compare-and-set is the idempotency
// barrier: a double-tap loses the race and sees ALREADY_PROCESSED while the
// winning transaction carries every side effect exactly once.
func (s *service) Confirm(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id and order id are required")
	}

	var confirmed *models.Order
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.deps.Orders.WithTx(tx)
		order, err := ordersRepo.GetForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		ok, err := ordersRepo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "order already confirmed")
		}
		order.Status = enums.OrderStatusConfirmed

		items, err := order.Items()
		if err != nil {
			return err
		}
		catalogRepo := s.deps.Catalog.WithTx(tx)
		for _, item := range items {
			if err := catalogRepo.DecrementStock(ctx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}

		if order.CouponCode != nil {
			if err := s.deps.Coupons.Redeem(ctx, tx, *order.CouponCode); err != nil {
				return err
			}
		}

		if order.BalanceUsed.IsPositive() {
			if _, err := s.deps.Wallet.Debit(ctx, tx, ledger.EntryInput{
				UserID:  userID,
				Amount:  order.BalanceUsed,
				Type:    enums.WalletEntryPurchase,
				OrderID: &order.ID,
			}); err != nil {
				return err
			}
		}

		paymentStatus := enums.PaymentStatusUnpaid
		if order.Payable().IsZero() {
			paymentStatus = enums.PaymentStatusPaid
		}
		if err := ordersRepo.SetPaymentStatus(ctx, order.ID, paymentStatus); err != nil {
			return err
		}
		order.PaymentStatus = paymentStatus

		if err := s.deps.Rewards.OnOrderConfirmed(ctx, tx, userID); err != nil {
			return err
		}

		if err := s.deps.CartRepo.WithTx(tx).Clear(ctx, userID); err != nil {
			return err
		}

		event := payloads.OrderConfirmedEvent{
			OrderID:     order.ID,
			UserID:      userID,
			Total:       order.Total,
			Discount:    order.Discount,
			BalanceUsed: order.BalanceUsed,
			Payable:     order.Payable(),
			Payment:     paymentStatus,
		}
		if order.CouponCode != nil {
			event.CouponCode = *order.CouponCode
		}
		if err := s.deps.Events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          event,
		}); err != nil {
			return err
		}

		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncOrder("confirmed")
	if confirmed.PaymentStatus == enums.PaymentStatusPaid {
		s.deps.Metrics.IncOrder("paid")
	}
	return confirmed, nil
}

// Cancel abandons a pending order. Nothing was committed yet, so there is
// nothing to roll back.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id and order id are required")
	}

	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.deps.Orders.WithTx(tx)
		order, err := ordersRepo.GetForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		ok, err := ordersRepo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "order is no longer pending")
		}

		return s.deps.Events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				UserID:      userID,
				CancelledAt: time.Now(),
			},
		})
	})
	if err != nil {
		return err
	}
	s.deps.Metrics.IncOrder("cancelled")
	return nil
}

// fulfilmentPrev maps each fulfilment status to the only status it may be
// entered from. Steps cannot be skipped or revisited.
var fulfilmentPrev = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusProcessing: enums.OrderStatusConfirmed,
	enums.OrderStatusShipped:    enums.OrderStatusProcessing,
	enums.OrderStatusDelivered:  enums.OrderStatusShipped,
	enums.OrderStatusCompleted:  enums.OrderStatusDelivered,
}

func (s *service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	from, ok := fulfilmentPrev[to]
	if !ok {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("%s is not a fulfilment status", to))
	}

	var advanced *models.Order
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.deps.Orders.WithTx(tx)
		order, err := ordersRepo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		moved, err := ordersRepo.TransitionStatus(ctx, order.ID, from, to)
		if err != nil {
			return err
		}
		if !moved {
			if order.Status == to {
				return apperrors.New(apperrors.CodeAlreadyProcessed,
					fmt.Sprintf("order is already %s", to))
			}
			return apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("order is %s, expected %s", order.Status, from))
		}
		order.Status = to

		if err := s.deps.Events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
				From:    from,
				To:      to,
			},
		}); err != nil {
			return err
		}

		advanced = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.IncOrder(string(to))
	return advanced, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.deps.Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.deps.Orders.ListByUser(ctx, userID, defaultListLimit)
}

func (s *service) pendingOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.deps.Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, apperrors.New(apperrors.CodeAlreadyProcessed, "order is no longer pending")
	}
	return order, nil
}
