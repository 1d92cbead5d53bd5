package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// Repository owns the wallet balance column and its audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Debit subtracts amount only while the balance covers it; the guard in
	// the WHERE clause is what makes overdrafts impossible under concurrency.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	InsertEntry(ctx context.Context, entry *models.WalletTransaction) error
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Where("balance >= ?", amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}
	return nil
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("balance").Where("id = ?", userID).First(&user).Error; err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

func (r *repository) InsertEntry(ctx context.Context, entry *models.WalletTransaction) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
