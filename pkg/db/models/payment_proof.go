package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// PaymentProof links a user-submitted payment artifact to an order awaiting
// admin review. Status is terminal once it leaves pending.
type PaymentProof struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	MethodID    *uuid.UUID         `gorm:"column:method_id;type:uuid"`
	ArtifactRef string             `gorm:"column:artifact_ref;not null"`
	Status      enums.ReviewStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	Reason      *string            `gorm:"column:reason"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
