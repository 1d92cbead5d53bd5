package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// Repository manages persistence for categories and products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error

	ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, includeInactive bool) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
	// DecrementStock subtracts qty from a finite stock, clamping at zero.
	// Unlimited stock (-1) is left untouched.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCategories(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var categories []models.Category
	if err := q.Order("position ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) ListProductsByCategory(ctx context.Context, categoryID uuid.UUID, includeInactive bool) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SearchProducts performs a case-insensitive substring match on name and
// description. lower() LIKE keeps the query portable across Postgres and the
// sqlite test harness.
func (r *repository) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var products []models.Product
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("active = ?", true).
		Where("lower(name) LIKE ? OR lower(description) LIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock = CASE
		   WHEN stock = ? THEN stock
		   WHEN stock < ? THEN 0
		   ELSE stock - ?
		 END
		 WHERE id = ?`,
		models.UnlimitedStock, qty, qty, id,
	).Error
}
