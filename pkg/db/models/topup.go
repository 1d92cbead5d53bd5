package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// TopUp is a wallet credit request backed by an uploaded payment artifact.
// Approval credits the ledger exactly once; status is terminal after review.
type TopUp struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	MethodID    *uuid.UUID         `gorm:"column:method_id;type:uuid"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	ArtifactRef string             `gorm:"column:artifact_ref;not null;default:''"`
	Status      enums.ReviewStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	Reason      *string            `gorm:"column:reason"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (TopUp) TableName() string {
	return "topups"
}
