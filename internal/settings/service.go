package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// Well-known setting keys. Values in the table override the config defaults.
const (
	KeyMinOrderSubtotal    = "min_order_subtotal"
	KeyCurrency            = "currency"
	KeyPointsPerOrder      = "points_per_order"
	KeyAdminPassphraseHash = "admin_passphrase_hash"
)

// Service reads storefront policy, preferring table rows over config
// defaults so admins can retune the store without a redeploy.
type Service interface {
	MinOrderSubtotal(ctx context.Context) (decimal.Decimal, error)
	Currency(ctx context.Context) (string, error)
	PointsPerOrder(ctx context.Context) (int, error)
	AdminPassphraseHash(ctx context.Context) (string, error)

	SetMinOrderSubtotal(ctx context.Context, value decimal.Decimal) error
	SetAdminPassphraseHash(ctx context.Context, hash string) error
	Set(ctx context.Context, key, value string) error
}

type service struct {
	repo     Repository
	defaults config.StoreConfig
}

// NewService wires a settings service with its repository and config defaults.
func NewService(repo Repository, defaults config.StoreConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo, defaults: defaults}, nil
}

func (s *service) MinOrderSubtotal(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.lookup(ctx, KeyMinOrderSubtotal, s.defaults.MinOrderSubtotal)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", KeyMinOrderSubtotal, err)
	}
	return value, nil
}

func (s *service) Currency(ctx context.Context) (string, error) {
	return s.lookup(ctx, KeyCurrency, s.defaults.Currency)
}

func (s *service) PointsPerOrder(ctx context.Context) (int, error) {
	raw, err := s.lookup(ctx, KeyPointsPerOrder, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return s.defaults.PointsPerOrder, nil
	}
	var points int
	if _, err := fmt.Sscanf(raw, "%d", &points); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", KeyPointsPerOrder, err)
	}
	return points, nil
}

func (s *service) AdminPassphraseHash(ctx context.Context) (string, error) {
	return s.lookup(ctx, KeyAdminPassphraseHash, "")
}

func (s *service) SetMinOrderSubtotal(ctx context.Context, value decimal.Decimal) error {
	if value.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "minimum order subtotal cannot be negative")
	}
	return s.repo.Set(ctx, KeyMinOrderSubtotal, value.StringFixed(2))
}

func (s *service) SetAdminPassphraseHash(ctx context.Context, hash string) error {
	if strings.TrimSpace(hash) == "" {
		return apperrors.New(apperrors.CodeValidation, "hash is required")
	}
	return s.repo.Set(ctx, KeyAdminPassphraseHash, hash)
}

func (s *service) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return apperrors.New(apperrors.CodeValidation, "setting key is required")
	}
	return s.repo.Set(ctx, key, value)
}

func (s *service) lookup(ctx context.Context, key, fallback string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return fallback, nil
	}
	return setting.Value, nil
}
