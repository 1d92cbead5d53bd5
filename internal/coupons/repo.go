package coupons

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// Repository manages persistence for discount coupons.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	SetActive(ctx context.Context, code string, active bool) error
	// IncrementUse bumps used_count only while the cap allows it; returns
	// false when the coupon was already exhausted.
	IncrementUse(ctx context.Context, code string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a coupon repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", normalizeCode(code)).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = normalizeCode(coupon.Code)
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) SetActive(ctx context.Context, code string, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ?", normalizeCode(code)).
		Update("active", active).Error
}

func (r *repository) IncrementUse(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ?", normalizeCode(code)).
		Where("max_uses = ? OR used_count < max_uses", models.UnlimitedUses).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
