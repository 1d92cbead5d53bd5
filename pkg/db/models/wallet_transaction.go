package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// WalletTransaction is an append-only record of a balance movement. Amount is
// signed: negative for debits, positive for credits.
type WalletTransaction struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Type         enums.WalletEntryType `gorm:"column:type;type:text;not null"`
	Amount       decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceAfter decimal.Decimal       `gorm:"column:balance_after;type:numeric(12,2);not null"`
	OrderID      *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	TopUpID      *uuid.UUID            `gorm:"column:topup_id;type:uuid"`
	Note         *string               `gorm:"column:note"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
