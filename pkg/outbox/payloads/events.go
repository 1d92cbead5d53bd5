package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// OrderConfirmedEvent signals an order moving from pending to confirmed.
type OrderConfirmedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	UserID      uuid.UUID           `json:"user_id"`
	Total       decimal.Decimal     `json:"total"`
	Discount    decimal.Decimal     `json:"discount"`
	BalanceUsed decimal.Decimal     `json:"balance_used"`
	Payable     decimal.Decimal     `json:"payable"`
	Payment     enums.PaymentStatus `json:"payment_status"`
	CouponCode  string              `json:"coupon_code,omitempty"`
}

// OrderCancelledEvent is emitted when a buyer abandons a pending order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// OrderStatusChangedEvent records one fulfilment step applied by an admin.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// ProofSubmittedEvent tells admins a payment proof is waiting for review.
type ProofSubmittedEvent struct {
	ProofID uuid.UUID `json:"proof_id"`
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// ProofReviewedEvent reports the admin decision on a payment proof.
type ProofReviewedEvent struct {
	ProofID  uuid.UUID          `json:"proof_id"`
	OrderID  uuid.UUID          `json:"order_id"`
	UserID   uuid.UUID          `json:"user_id"`
	Decision enums.ReviewStatus `json:"decision"`
	Reason   string             `json:"reason,omitempty"`
}

// TopUpReviewedEvent reports the admin decision on a wallet top-up.
type TopUpReviewedEvent struct {
	TopUpID  uuid.UUID          `json:"topup_id"`
	UserID   uuid.UUID          `json:"user_id"`
	Amount   decimal.Decimal    `json:"amount"`
	Decision enums.ReviewStatus `json:"decision"`
	Reason   string             `json:"reason,omitempty"`
}

// TicketOpenedEvent tells downstream systems a support thread was opened.
type TicketOpenedEvent struct {
	TicketID uuid.UUID `json:"ticket_id"`
	UserID   uuid.UUID `json:"user_id"`
	Subject  string    `json:"subject"`
}

// ManualDeliveryRequiredEvent alerts operators that a paid order contains
// items without an automatic delivery payload.
type ManualDeliveryRequiredEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     uuid.UUID   `json:"user_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}
