package models

import (
	"time"
)

// UnlimitedUses marks a coupon without a redemption cap.
const UnlimitedUses = -1

// Coupon is a percentage discount code. UsedCount only advances when an order
// referencing the code reaches confirmed.
type Coupon struct {
	Code            string    `gorm:"column:code;primaryKey"`
	DiscountPercent int       `gorm:"column:discount_percent;not null"`
	MaxUses         int       `gorm:"column:max_uses;not null;default:-1"`
	UsedCount       int       `gorm:"column:used_count;not null;default:0"`
	Active          bool      `gorm:"column:active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Exhausted reports whether the coupon has hit its redemption cap.
func (c Coupon) Exhausted() bool {
	return c.MaxUses != UnlimitedUses && c.UsedCount >= c.MaxUses
}
