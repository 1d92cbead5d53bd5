package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func TestSearchRejectsShortQueries(t *testing.T) {
	svc, _ := newTestService(t)

	for _, q := range []string{"", " ", "a", " a "} {
		_, err := svc.Search(context.Background(), q)
		if !apperrors.IsCode(err, apperrors.CodeValidation) {
			t.Fatalf("query %q: expected validation error, got %v", q, err)
		}
	}
}

func TestSearchMatchesNameAndDescriptionCaseInsensitive(t *testing.T) {
	svc, categoryID := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:         "Mega VPN Key",
		Description:  "12 month subscription",
		Price:        decimal.RequireFromString("19.99"),
		Stock:        5,
		CategoryID:   categoryID,
		DeliveryType: enums.DeliveryTypeManual,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:         "Game Voucher",
		Description:  "includes vpn trial",
		Price:        decimal.RequireFromString("4.50"),
		Stock:        1,
		CategoryID:   categoryID,
		DeliveryType: enums.DeliveryTypeManual,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	results, err := svc.Search(ctx, "VPN")
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
}

func TestSearchSkipsInactiveProducts(t *testing.T) {
	svc, categoryID := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:         "Retired Item",
		Price:        decimal.RequireFromString("1.00"),
		Stock:        1,
		CategoryID:   categoryID,
		DeliveryType: enums.DeliveryTypeManual,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := svc.SetActive(ctx, product.ID, false); err != nil {
		t.Fatalf("deactivate product: %v", err)
	}

	results, err := svc.Search(ctx, "retired")
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected inactive product to be hidden, got %d results", len(results))
	}
}

func TestListProductsUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListProducts(context.Background(), uuid.New())
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, categoryID := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"empty name", CreateProductInput{CategoryID: categoryID, DeliveryType: enums.DeliveryTypeManual}},
		{"negative price", CreateProductInput{Name: "X", Price: decimal.RequireFromString("-1"), CategoryID: categoryID, DeliveryType: enums.DeliveryTypeManual}},
		{"bad stock", CreateProductInput{Name: "X", Stock: -2, CategoryID: categoryID, DeliveryType: enums.DeliveryTypeManual}},
		{"bad delivery type", CreateProductInput{Name: "X", CategoryID: categoryID, DeliveryType: enums.DeliveryType("carrier-pigeon")}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateProduct(ctx, tc.input); !apperrors.IsCode(err, apperrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestSetStockAndPrice(t *testing.T) {
	svc, categoryID := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:         "Gift Card",
		Price:        decimal.RequireFromString("10.00"),
		Stock:        3,
		CategoryID:   categoryID,
		DeliveryType: enums.DeliveryTypeManual,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := svc.SetStock(ctx, product.ID, 7); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if err := svc.SetPrice(ctx, product.ID, decimal.RequireFromString("12.50")); err != nil {
		t.Fatalf("set price: %v", err)
	}

	got, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", got.Stock)
	}
	if !got.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected price 12.50, got %s", got.Price)
	}
}

func newTestService(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	category, err := svc.CreateCategory(context.Background(), "Digital Goods", 1)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return svc, category.ID
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  position INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  category_id TEXT NOT NULL,
  delivery_type TEXT NOT NULL DEFAULT 'manual',
  delivery_payload TEXT,
  delivery_file_ref TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(categories).Error; err != nil {
		t.Fatalf("create categories table: %v", err)
	}
	if err := db.Exec(products).Error; err != nil {
		t.Fatalf("create products table: %v", err)
	}
	return db
}
