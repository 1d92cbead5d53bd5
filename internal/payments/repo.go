package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Repository manages payment methods, payment proofs and wallet top-ups.
// Review decisions are single-row compare-and-set updates: whichever admin
// moves the row out of pending first wins, everyone else sees zero rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListMethods(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error)
	GetMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	CreateMethod(ctx context.Context, method *models.PaymentMethod) error
	SetMethodActive(ctx context.Context, id uuid.UUID, active bool) error

	CreateProof(ctx context.Context, proof *models.PaymentProof) error
	GetProof(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error)
	ListProofsByStatus(ctx context.Context, status enums.ReviewStatus, limit int) ([]models.PaymentProof, error)
	ReviewProof(ctx context.Context, id uuid.UUID, decision enums.ReviewStatus, reason *string) (bool, error)
	// SupersedePendingProofs retires every still-pending proof for the order,
	// so a replacement upload is the only one left to review.
	SupersedePendingProofs(ctx context.Context, orderID uuid.UUID) error

	CreateTopUp(ctx context.Context, topUp *models.TopUp) error
	GetTopUp(ctx context.Context, id uuid.UUID) (*models.TopUp, error)
	ListTopUpsByStatus(ctx context.Context, status enums.ReviewStatus, limit int) ([]models.TopUp, error)
	SetTopUpArtifact(ctx context.Context, id uuid.UUID, artifactRef string) (bool, error)
	ReviewTopUp(ctx context.Context, id uuid.UUID, decision enums.ReviewStatus, reason *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListMethods(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentMethod{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var methods []models.PaymentMethod
	if err := query.Order("name ASC").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) GetMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) CreateMethod(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *repository) SetMethodActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&models.PaymentMethod{}).
		Where("id = ?", id).
		Update("active", active).Error
}

func (r *repository) CreateProof(ctx context.Context, proof *models.PaymentProof) error {
	if proof.ID == uuid.Nil {
		proof.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(proof).Error
}

func (r *repository) GetProof(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&proof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) ListProofsByStatus(ctx context.Context, status enums.ReviewStatus, limit int) ([]models.PaymentProof, error) {
	var proofs []models.PaymentProof
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&proofs).Error
	if err != nil {
		return nil, err
	}
	return proofs, nil
}

func (r *repository) ReviewProof(ctx context.Context, id uuid.UUID, decision enums.ReviewStatus, reason *string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentProof{}).
		Where("id = ?", id).
		Where("status = ?", enums.ReviewStatusPending).
		Updates(map[string]any{"status": decision, "reason": reason})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SupersedePendingProofs(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.PaymentProof{}).
		Where("order_id = ?", orderID).
		Where("status = ?", enums.ReviewStatusPending).
		Update("status", enums.ReviewStatusSuperseded).Error
}

func (r *repository) CreateTopUp(ctx context.Context, topUp *models.TopUp) error {
	if topUp.ID == uuid.Nil {
		topUp.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(topUp).Error
}

func (r *repository) GetTopUp(ctx context.Context, id uuid.UUID) (*models.TopUp, error) {
	var topUp models.TopUp
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&topUp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &topUp, nil
}

func (r *repository) ListTopUpsByStatus(ctx context.Context, status enums.ReviewStatus, limit int) ([]models.TopUp, error) {
	var topUps []models.TopUp
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&topUps).Error
	if err != nil {
		return nil, err
	}
	return topUps, nil
}

func (r *repository) SetTopUpArtifact(ctx context.Context, id uuid.UUID, artifactRef string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.TopUp{}).
		Where("id = ?", id).
		Where("status = ?", enums.ReviewStatusPending).
		Update("artifact_ref", artifactRef)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ReviewTopUp(ctx context.Context, id uuid.UUID, decision enums.ReviewStatus, reason *string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.TopUp{}).
		Where("id = ?", id).
		Where("status = ?", enums.ReviewStatusPending).
		Updates(map[string]any{"status": decision, "reason": reason})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
