package bot

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/internal/cart"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// UpdateKind classifies an inbound webhook update.
type UpdateKind string

const (
	UpdateKindButton UpdateKind = "button"
	UpdateKindText   UpdateKind = "text"
	UpdateKindPhoto  UpdateKind = "photo"
)

// Update is one normalized inbound event from the chat platform. Exactly one
// of Text, ButtonID or FileRef carries the payload, depending on Kind.
type Update struct {
	UpdateID    int64
	PlatformID  int64
	DisplayName string
	Handle      *string
	Kind        UpdateKind
	Text        string
	ButtonID    string
	FileRef     string
}

// Presenter renders storefront state back to the user. Templates, keyboards
// and localization live behind this port; the router only decides WHAT to
// show.
type Presenter interface {
	Notify(ctx context.Context, platformID int64, text string) error
	ShowCategories(ctx context.Context, platformID int64, categories []models.Category) error
	ShowProducts(ctx context.Context, platformID int64, products []models.Product) error
	ShowProduct(ctx context.Context, platformID int64, product *models.Product) error
	ShowCart(ctx context.Context, platformID int64, summary *cart.Summary) error
	ShowOrder(ctx context.Context, platformID int64, order *models.Order) error
	ShowOrders(ctx context.Context, platformID int64, orders []models.Order) error
	ShowPaymentMethods(ctx context.Context, platformID int64, order *models.Order, methods []models.PaymentMethod) error
	ShowWallet(ctx context.Context, platformID int64, balance decimal.Decimal, history []models.WalletTransaction) error
	ShowTickets(ctx context.Context, platformID int64, tickets []models.Ticket) error
	ShowReviewQueue(ctx context.Context, platformID int64, proofs []models.PaymentProof, topUps []models.TopUp) error
}
