package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// productGetter is the slice of the catalog the cart needs.
type productGetter interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Line is a cart row priced against the live catalog.
type Line struct {
	Product   models.Product
	Qty       int
	LineTotal decimal.Decimal
}

// Summary is the cart contents plus the recomputed subtotal. Lines whose
// product has been deleted or deactivated are dropped from the view.
type Summary struct {
	Lines    []Line
	Subtotal decimal.Decimal
}

// Service owns the per-user cart. The cart stores only (product, qty); every
// price shown is read from the catalog at call time.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error
	Increment(ctx context.Context, userID, productID uuid.UUID) error
	Decrement(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
}

type service struct {
	repo     Repository
	products productGetter
}

// NewService wires a cart service with its repository and a catalog view.
func NewService(repo Repository, products productGetter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product getter required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if qty <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.sellableProduct(ctx, productID)
	if err != nil {
		return err
	}

	existing, err := s.repo.Get(ctx, userID, productID)
	if err != nil {
		return err
	}
	current := 0
	if existing != nil {
		current = existing.Qty
	}

	if !product.InStock(current + qty) {
		return apperrors.New(apperrors.CodeInsufficientStock, "not enough stock")
	}

	return s.repo.Upsert(ctx, &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Qty:       current + qty,
	})
}

func (s *service) Increment(ctx context.Context, userID, productID uuid.UUID) error {
	return s.Add(ctx, userID, productID, 1)
}

// Decrement lowers the line by one; reaching zero removes the line entirely.
func (s *service) Decrement(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	existing, err := s.repo.Get(ctx, userID, productID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}
	if existing.Qty <= 1 {
		return s.repo.Delete(ctx, userID, productID)
	}
	return s.repo.SetQty(ctx, userID, productID, existing.Qty-1)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.Delete(ctx, userID, productID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.Clear(ctx, userID)
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Subtotal: decimal.Zero}
	for _, item := range items {
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.Active {
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		summary.Lines = append(summary.Lines, Line{
			Product:   *product,
			Qty:       item.Qty,
			LineTotal: lineTotal,
		})
		summary.Subtotal = summary.Subtotal.Add(lineTotal)
	}
	return summary, nil
}

func (s *service) sellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not available")
	}
	return product, nil
}
