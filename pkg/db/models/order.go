package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// OrderItem is one frozen line of an order snapshot. It is copied from the
// cart at checkout time and never re-reads the catalog.
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
}

// Order is the append-only purchase record. Total stores the pre-discount
// subtotal; Discount and BalanceUsed are fixed at confirmation time and the
// payable amount is always derived, never stored.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ItemsJSON       json.RawMessage     `gorm:"column:items_json;type:jsonb;not null"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Discount        decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	BalanceUsed     decimal.Decimal     `gorm:"column:balance_used;type:numeric(12,2);not null;default:0"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	CouponCode      *string             `gorm:"column:coupon_code"`
	PaymentMethodID *uuid.UUID          `gorm:"column:payment_method_id;type:uuid"`
	PaymentProofID  *uuid.UUID          `gorm:"column:payment_proof_id;type:uuid"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Items decodes the frozen snapshot taken at checkout.
func (o Order) Items() ([]OrderItem, error) {
	var items []OrderItem
	if err := json.Unmarshal(o.ItemsJSON, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Payable derives the amount still owed: max(0, total - discount - balance).
func (o Order) Payable() decimal.Decimal {
	payable := o.Total.Sub(o.Discount).Sub(o.BalanceUsed)
	if payable.IsNegative() {
		return decimal.Zero
	}
	return payable
}
