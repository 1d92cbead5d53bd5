package rewards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/settings"
	"github.com/angelmondragon/chatstore-backend/internal/users"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// referralMultiplier scales the buyer's per-order points into the one-time
// bonus paid to whoever referred them.
const referralMultiplier = 2

// Service awards loyalty points when orders are confirmed. The buyer earns
// the configured points-per-order on every confirmed order; the referrer
// earns a one-time bonus when their referee confirms a first order.
type Service interface {
	// OnOrderConfirmed runs inside the confirmation transaction so point
	// awards commit or roll back together with the order.
	OnOrderConfirmed(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type service struct {
	users    users.Repository
	settings settings.Service
}

// NewService wires the rewards engine.
func NewService(usersRepo users.Repository, settingsSvc settings.Service) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	return &service{users: usersRepo, settings: settingsSvc}, nil
}

func (s *service) OnOrderConfirmed(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	points, err := s.settings.PointsPerOrder(ctx)
	if err != nil {
		return err
	}
	if points <= 0 {
		return nil
	}

	repo := s.users.WithTx(tx)
	if err := repo.AdjustPoints(ctx, userID, points); err != nil {
		return err
	}

	buyer, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if buyer == nil || buyer.ReferrerID == nil {
		return nil
	}

	// The order row is already confirmed inside this transaction, so a
	// count of one means this is the referee's first confirmed order.
	confirmed, err := repo.CountConfirmedOrders(ctx, userID)
	if err != nil {
		return err
	}
	if confirmed != 1 {
		return nil
	}
	return repo.AdjustPoints(ctx, *buyer.ReferrerID, points*referralMultiplier)
}
