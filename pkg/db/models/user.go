package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a storefront customer keyed by their chat-platform identity.
// Created on first contact; balance is mutated only through the wallet ledger.
type User struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PlatformID        int64           `gorm:"column:platform_id;uniqueIndex;not null"`
	DisplayName       string          `gorm:"column:display_name;not null"`
	Handle            *string         `gorm:"column:handle"`
	Banned            bool            `gorm:"column:banned;not null;default:false"`
	Balance           decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	Points            int             `gorm:"column:points;not null;default:0"`
	PreferredCurrency string          `gorm:"column:preferred_currency;not null;default:'USD'"`
	ReferrerID        *uuid.UUID      `gorm:"column:referrer_id;type:uuid"`
	JoinedAt          time.Time       `gorm:"column:joined_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
