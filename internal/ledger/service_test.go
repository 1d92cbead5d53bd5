package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func TestCreditThenDebit(t *testing.T) {
	svc, db, userID := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Credit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.RequireFromString("50.00"),
		Type:   enums.WalletEntryTopUp,
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !entry.BalanceAfter.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected balance 50.00, got %s", entry.BalanceAfter)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected signed amount +50.00, got %s", entry.Amount)
	}

	entry, err = svc.Debit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.RequireFromString("17.99"),
		Type:   enums.WalletEntryPurchase,
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !entry.BalanceAfter.Equal(decimal.RequireFromString("32.01")) {
		t.Fatalf("expected balance 32.01, got %s", entry.BalanceAfter)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("-17.99")) {
		t.Fatalf("expected signed amount -17.99, got %s", entry.Amount)
	}
}

func TestDebitRejectsOverdraft(t *testing.T) {
	svc, db, userID := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.RequireFromString("5.00"),
		Type:   enums.WalletEntryTopUp,
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := svc.Debit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.RequireFromString("5.01"),
		Type:   enums.WalletEntryPurchase,
	})
	if !apperrors.IsCode(err, apperrors.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}

	// balance must be untouched after the rejected debit
	balance, err := svc.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected balance 5.00, got %s", balance)
	}
}

func TestRejectedDebitWritesNoAuditRow(t *testing.T) {
	svc, db, userID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Debit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.RequireFromString("1.00"),
		Type:   enums.WalletEntryPurchase,
	})
	if !apperrors.IsCode(err, apperrors.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}

	entries, err := svc.History(ctx, userID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history after rejected debit, got %d entries", len(entries))
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	svc, db, userID := newTestService(t)
	ctx := context.Background()

	for _, amount := range []string{"10.00", "20.00", "30.00"} {
		if _, err := svc.Credit(ctx, db, EntryInput{
			UserID: userID,
			Amount: decimal.RequireFromString(amount),
			Type:   enums.WalletEntryTopUp,
		}); err != nil {
			t.Fatalf("credit %s: %v", amount, err)
		}
	}

	entries, err := svc.History(ctx, userID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !entries[0].BalanceAfter.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected newest entry balance 60.00, got %s", entries[0].BalanceAfter)
	}
}

func TestEntryValidation(t *testing.T) {
	svc, db, userID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.Zero,
		Type:   enums.WalletEntryTopUp,
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	_, err = svc.Credit(ctx, db, EntryInput{
		UserID: userID,
		Amount: decimal.RequireFromString("1.00"),
		Type:   enums.WalletEntryType("mystery"),
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	userID := uuid.New()
	user := models.User{
		ID:          userID,
		PlatformID:  1,
		DisplayName: "wallet-owner",
		Balance:     decimal.Zero,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return svc, db, userID
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  platform_id INTEGER NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  handle TEXT,
  banned INTEGER NOT NULL DEFAULT 0,
  balance NUMERIC NOT NULL DEFAULT 0,
  points INTEGER NOT NULL DEFAULT 0,
  preferred_currency TEXT NOT NULL DEFAULT 'USD',
  referrer_id TEXT,
  joined_at DATETIME,
  updated_at DATETIME
);`
	walletTransactions := `
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  balance_after NUMERIC NOT NULL,
  order_id TEXT,
  topup_id TEXT,
  note TEXT,
  created_at DATETIME
);`
	if err := db.Exec(users).Error; err != nil {
		t.Fatalf("create users table: %v", err)
	}
	if err := db.Exec(walletTransactions).Error; err != nil {
		t.Fatalf("create wallet_transactions table: %v", err)
	}
	return db
}
