package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Repository manages persistence for orders. Status transitions that must be
// idempotent are expressed as compare-and-set updates so concurrent callers
// cannot apply the same transition twice.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus, limit int) ([]models.Order, error)
	// UpdatePending applies updates only while the order is still pending;
	// returns false when the order has already left the pending state.
	UpdatePending(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	// TransitionStatus moves the order from exactly `from` to `to`; returns
	// false when the order was not in `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	// TransitionPaymentStatus is the payment-side compare-and-set; returns
	// false when the order's payment was not in `from`.
	TransitionPaymentStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus) (bool, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	SetPaymentProof(ctx context.Context, id, proofID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OrderStatus, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdatePending(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Where("status = ?", enums.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) TransitionPaymentStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Where("payment_status = ?", from).
		Update("payment_status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}

func (r *repository) SetPaymentProof(ctx context.Context, id, proofID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_proof_id", proofID).Error
}
