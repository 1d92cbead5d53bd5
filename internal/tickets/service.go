package tickets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the support-thread lifecycle: open, reply from either side,
// close, and reopen by replying again.
type Service interface {
	Open(ctx context.Context, userID uuid.UUID, subject, message string) (*models.Ticket, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error)
	ListOpen(ctx context.Context) ([]models.Ticket, error)
	Reply(ctx context.Context, ticketID uuid.UUID, sender enums.TicketSender, body string) (*models.TicketReply, error)
	Close(ctx context.Context, ticketID uuid.UUID) error
}

type service struct {
	repo   Repository
	events *outbox.Service
	tx     txRunner
}

// NewService wires a ticket service. Events and the transaction runner are
// optional as a pair; without them Open skips the outbox notification.
func NewService(repo Repository, events *outbox.Service, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if (events == nil) != (tx == nil) {
		return nil, fmt.Errorf("outbox service and transaction runner go together")
	}
	return &service{repo: repo, events: events, tx: tx}, nil
}

func (s *service) Open(ctx context.Context, userID uuid.UUID, subject, message string) (*models.Ticket, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "subject is required")
	}
	if message == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "message is required")
	}

	ticket := &models.Ticket{
		UserID:  userID,
		Subject: subject,
		Message: message,
		Status:  enums.TicketStatusOpen,
	}
	if s.events == nil {
		if err := s.repo.Create(ctx, ticket); err != nil {
			return nil, err
		}
		return ticket, nil
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, ticket); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTicketOpened,
			AggregateType: enums.AggregateTicket,
			AggregateID:   ticket.ID,
			Data: payloads.TicketOpenedEvent{
				TicketID: ticket.ID,
				UserID:   userID,
				Subject:  subject,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "ticket id is required")
	}
	ticket, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "ticket not found")
	}
	return ticket, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListOpen(ctx context.Context) ([]models.Ticket, error) {
	return s.repo.ListByStatus(ctx, enums.TicketStatusOpen)
}

// Reply appends to the thread; replying to a closed ticket reopens it.
func (s *service) Reply(ctx context.Context, ticketID uuid.UUID, sender enums.TicketSender, body string) (*models.TicketReply, error) {
	if ticketID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "ticket id is required")
	}
	if !sender.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid sender")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "reply body is required")
	}

	ticket, err := s.repo.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "ticket not found")
	}

	reply := &models.TicketReply{
		TicketID: ticketID,
		Sender:   sender,
		Body:     body,
	}
	if err := s.repo.AddReply(ctx, reply); err != nil {
		return nil, err
	}

	if ticket.Status == enums.TicketStatusClosed {
		if err := s.repo.SetStatus(ctx, ticketID, enums.TicketStatusOpen); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

func (s *service) Close(ctx context.Context, ticketID uuid.UUID) error {
	if ticketID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "ticket id is required")
	}
	ticket, err := s.repo.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return apperrors.New(apperrors.CodeNotFound, "ticket not found")
	}
	return s.repo.SetStatus(ctx, ticketID, enums.TicketStatusClosed)
}
