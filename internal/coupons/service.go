package coupons

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// Service validates and redeems percentage discount codes. Validation never
// consumes a use; redemption happens inside the order-confirmation
// transaction so abandoned orders leave the counter untouched.
type Service interface {
	Validate(ctx context.Context, code string) (*models.Coupon, error)
	// Redeem consumes one use inside tx. Exhaustion at this point surfaces
	// as INVALID_COUPON because a concurrent order won the last slot.
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
	Create(ctx context.Context, code string, discountPercent, maxUses int) (*models.Coupon, error)
	Deactivate(ctx context.Context, code string) error
}

// Discount computes the discount value for a subtotal, rounded to cents.
func Discount(subtotal decimal.Decimal, percent int) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100)).Round(2)
}

type service struct {
	repo Repository
}

// NewService wires a coupon service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Validate(ctx context.Context, code string) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidCoupon, "coupon code is required")
	}
	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.Active {
		return nil, apperrors.New(apperrors.CodeInvalidCoupon, "coupon not recognized")
	}
	if coupon.Exhausted() {
		return nil, apperrors.New(apperrors.CodeInvalidCoupon, "coupon has been used up")
	}
	return coupon, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	ok, err := s.repo.WithTx(tx).IncrementUse(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.CodeInvalidCoupon, "coupon has been used up")
	}
	return nil
}

func (s *service) Create(ctx context.Context, code string, discountPercent, maxUses int) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "coupon code is required")
	}
	if discountPercent < 1 || discountPercent > 100 {
		return nil, apperrors.New(apperrors.CodeValidation, "discount percent must be between 1 and 100")
	}
	if maxUses < models.UnlimitedUses || maxUses == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "max uses must be -1 or positive")
	}

	coupon := &models.Coupon{
		Code:            code,
		DiscountPercent: discountPercent,
		MaxUses:         maxUses,
		Active:          true,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *service) Deactivate(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperrors.New(apperrors.CodeValidation, "coupon code is required")
	}
	return s.repo.SetActive(ctx, code, false)
}
