package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is an out-of-band payment channel (bank transfer, crypto
// wallet, ...) whose instructions are shown to the buyer.
type PaymentMethod struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Instructions string    `gorm:"column:instructions;not null;default:''"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
