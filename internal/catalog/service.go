package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// MinSearchLength is the shortest query the free-text search accepts.
const MinSearchLength = 2

const defaultSearchLimit = 25

// Service exposes the browsable catalog plus the admin management surface.
type Service interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)

	CreateCategory(ctx context.Context, name string, position int) (*models.Category, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	SetStock(ctx context.Context, productID uuid.UUID, stock int) error
	SetPrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error
	SetActive(ctx context.Context, productID uuid.UUID, active bool) error
}

// CreateProductInput carries the fields an admin supplies for a new product.
type CreateProductInput struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	Stock           int
	CategoryID      uuid.UUID
	DeliveryType    enums.DeliveryType
	DeliveryPayload *string
	DeliveryFileRef *string
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx, false)
}

func (s *service) ListProducts(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	if categoryID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "category id is required")
	}
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "category not found")
	}
	return s.repo.ListProductsByCategory(ctx, categoryID, false)
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) Search(ctx context.Context, query string) ([]models.Product, error) {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < MinSearchLength {
		return nil, apperrors.New(apperrors.CodeValidation, "search query too short")
	}
	return s.repo.SearchProducts(ctx, trimmed, defaultSearchLimit)
}

func (s *service) CreateCategory(ctx context.Context, name string, position int) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "category name is required")
	}
	category := &models.Category{
		Name:     name,
		Position: position,
		Active:   true,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "product name is required")
	}
	if input.CategoryID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "category id is required")
	}
	if input.Price.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < models.UnlimitedStock {
		return nil, apperrors.New(apperrors.CodeValidation, "stock must be -1, 0 or positive")
	}
	if !input.DeliveryType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid delivery type")
	}

	category, err := s.repo.GetCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "category not found")
	}

	product := &models.Product{
		Name:            input.Name,
		Description:     strings.TrimSpace(input.Description),
		Price:           input.Price,
		Stock:           input.Stock,
		CategoryID:      input.CategoryID,
		DeliveryType:    input.DeliveryType,
		DeliveryPayload: input.DeliveryPayload,
		DeliveryFileRef: input.DeliveryFileRef,
		Active:          true,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) SetStock(ctx context.Context, productID uuid.UUID, stock int) error {
	if productID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if stock < models.UnlimitedStock {
		return apperrors.New(apperrors.CodeValidation, "stock must be -1, 0 or positive")
	}
	return s.repo.UpdateProduct(ctx, productID, map[string]any{"stock": stock})
}

func (s *service) SetPrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error {
	if productID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if price.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "price cannot be negative")
	}
	return s.repo.UpdateProduct(ctx, productID, map[string]any{"price": price})
}

func (s *service) SetActive(ctx context.Context, productID uuid.UUID, active bool) error {
	if productID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	return s.repo.UpdateProduct(ctx, productID, map[string]any{"active": active})
}
