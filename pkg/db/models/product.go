package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// UnlimitedStock marks a product whose stock never depletes.
const UnlimitedStock = -1

// Product is a sellable catalog item. Stock semantics: -1 unlimited, 0 out of
// stock, >0 finite count. Stock is decremented only by order confirmation.
type Product struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string             `gorm:"column:name;not null"`
	Description     string             `gorm:"column:description;not null;default:''"`
	Price           decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	Stock           int                `gorm:"column:stock;not null;default:0"`
	CategoryID      uuid.UUID          `gorm:"column:category_id;type:uuid;not null;index"`
	DeliveryType    enums.DeliveryType `gorm:"column:delivery_type;type:text;not null;default:'manual'"`
	DeliveryPayload *string            `gorm:"column:delivery_payload"`
	DeliveryFileRef *string            `gorm:"column:delivery_file_ref"`
	Active          bool               `gorm:"column:active;not null;default:true"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether at least qty units can currently be sold.
func (p Product) InStock(qty int) bool {
	if p.Stock == UnlimitedStock {
		return true
	}
	return p.Stock >= qty
}
