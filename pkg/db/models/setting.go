package models

import "time"

// Setting is a key/value storefront policy row (minimum order subtotal,
// currency, points per order, hashed admin passphrase).
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
