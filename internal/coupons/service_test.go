package coupons

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func TestValidateAcceptsActiveCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "SAVE10", 10, -1); err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	coupon, err := svc.Validate(ctx, "save10")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if coupon.DiscountPercent != 10 {
		t.Fatalf("expected 10 percent, got %d", coupon.DiscountPercent)
	}
}

func TestValidateUnknownOrInactiveCoupon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "NOPE")
	if !apperrors.IsCode(err, apperrors.CodeInvalidCoupon) {
		t.Fatalf("expected invalid coupon error, got %v", err)
	}

	if _, err := svc.Create(ctx, "GONE", 20, -1); err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	if err := svc.Deactivate(ctx, "GONE"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = svc.Validate(ctx, "GONE")
	if !apperrors.IsCode(err, apperrors.CodeInvalidCoupon) {
		t.Fatalf("expected invalid coupon error for inactive, got %v", err)
	}
}

func TestValidateDoesNotConsumeUse(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "ONCE", 50, 1); err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Validate(ctx, "ONCE"); err != nil {
			t.Fatalf("validate attempt %d: %v", i, err)
		}
	}

	coupon, err := repo.GetByCode(ctx, "ONCE")
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if coupon.UsedCount != 0 {
		t.Fatalf("expected used count 0 after validations, got %d", coupon.UsedCount)
	}
}

func TestRedeemHonorsCap(t *testing.T) {
	svc, db := newTestServiceWithDB(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "CAPPED", 10, 1); err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	if err := svc.Redeem(ctx, db, "CAPPED"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	err := svc.Redeem(ctx, db, "CAPPED")
	if !apperrors.IsCode(err, apperrors.CodeInvalidCoupon) {
		t.Fatalf("expected invalid coupon on exhausted redeem, got %v", err)
	}
}

func TestRedeemUnlimitedCoupon(t *testing.T) {
	svc, db := newTestServiceWithDB(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "FOREVER", 5, -1); err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := svc.Redeem(ctx, db, "FOREVER"); err != nil {
			t.Fatalf("redeem %d: %v", i, err)
		}
	}
}

func TestDiscountRoundsToCents(t *testing.T) {
	got := Discount(decimal.RequireFromString("19.99"), 10)
	if !got.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected 2.00, got %s", got)
	}

	got = Discount(decimal.RequireFromString("33.33"), 15)
	if !got.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected 5.00, got %s", got)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", 10, -1); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for empty code, got %v", err)
	}
	if _, err := svc.Create(ctx, "BAD", 0, -1); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for zero percent, got %v", err)
	}
	if _, err := svc.Create(ctx, "BAD", 101, -1); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for oversized percent, got %v", err)
	}
	if _, err := svc.Create(ctx, "BAD", 10, 0); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for zero max uses, got %v", err)
	}
}

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc, repo
}

func newTestServiceWithDB(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc, db
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:coupons_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	coupons := `
CREATE TABLE IF NOT EXISTS coupons (
  code TEXT PRIMARY KEY,
  discount_percent INTEGER NOT NULL,
  max_uses INTEGER NOT NULL DEFAULT -1,
  used_count INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(coupons).Error; err != nil {
		t.Fatalf("create coupons table: %v", err)
	}
	return db
}
