package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// Repository manages persistence for storefront users.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByPlatformID(ctx context.Context, platformID int64) (*models.User, error)
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName string, handle *string) error
	CountConfirmedOrders(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a user repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetByPlatformID(ctx context.Context, platformID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("platform_id = ?", platformID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("banned", banned).Error
}

func (r *repository) AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("points", gorm.Expr("points + ?", delta)).Error
}

func (r *repository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string, handle *string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"display_name": displayName,
			"handle":       handle,
		}).Error
}

func (r *repository) CountConfirmedOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ?", id).
		Where("status NOT IN ?", []string{"pending", "cancelled"}).
		Count(&count).Error
	return count, err
}
