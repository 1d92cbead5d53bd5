package tickets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Repository manages persistence for support tickets and their replies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error)
	ListByStatus(ctx context.Context, status enums.TicketStatus) ([]models.Ticket, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.TicketStatus) error
	AddReply(ctx context.Context, reply *models.TicketReply) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ticket repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.TicketStatus) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.TicketStatus) error {
	return r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) AddReply(ctx context.Context, reply *models.TicketReply) error {
	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(reply).Error
}
