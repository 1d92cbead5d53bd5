package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// EntryInput describes one balance movement and its audit references.
type EntryInput struct {
	UserID  uuid.UUID
	Amount  decimal.Decimal
	Type    enums.WalletEntryType
	OrderID *uuid.UUID
	TopUpID *uuid.UUID
	Note    *string
}

// Service moves wallet balances. Every movement writes an append-only
// wallet_transactions row carrying the balance after the change, so the
// audit trail alone can reconstruct any balance.
type Service interface {
	// Debit runs inside the caller's transaction and fails with
	// INSUFFICIENT_BALANCE if the guard rejects the subtraction.
	Debit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	Credit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	ok, err := repo.Debit(ctx, input.UserID, input.Amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeInsufficientBalance, "wallet balance too low")
	}

	balance, err := repo.Balance(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	entry := &models.WalletTransaction{
		UserID:       input.UserID,
		Type:         input.Type,
		Amount:       input.Amount.Neg(),
		BalanceAfter: balance,
		OrderID:      input.OrderID,
		TopUpID:      input.TopUpID,
		Note:         input.Note,
	}
	if err := repo.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	if err := repo.Credit(ctx, input.UserID, input.Amount); err != nil {
		return nil, err
	}

	balance, err := repo.Balance(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	entry := &models.WalletTransaction{
		UserID:       input.UserID,
		Type:         input.Type,
		Amount:       input.Amount,
		BalanceAfter: balance,
		OrderID:      input.OrderID,
		TopUpID:      input.TopUpID,
		Note:         input.Note,
	}
	if err := repo.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.Balance(ctx, userID)
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.History(ctx, userID, limit)
}

func validateInput(input EntryInput) error {
	if input.UserID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !input.Amount.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	if !input.Type.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid wallet entry type %q", input.Type))
	}
	return nil
}
