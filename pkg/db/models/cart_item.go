package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a single cart line keyed by (user, product). The cart never
// stores prices; totals are recomputed from the live product at read time.
type CartItem struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Qty       int       `gorm:"column:qty;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
