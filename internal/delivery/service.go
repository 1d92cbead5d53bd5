package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/catalog"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/internal/users"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Item is one purchased line handed to the transport for automatic delivery.
type Item struct {
	ProductID uuid.UUID
	Name      string
	Qty       int
	Payload   string
	FileRef   *string
}

// Transport pushes a delivered item to the buyer over the chat channel.
type Transport interface {
	Deliver(ctx context.Context, platformID int64, item Item) error
}

// Service fulfils paid orders. Auto items go straight through the transport;
// manual items and failed sends become an admin obligation event so nothing
// is silently dropped.
type Service interface {
	DispatchOrder(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	orders    orders.Repository
	catalog   catalog.Repository
	users     users.Repository
	transport Transport
	events    *outbox.Service
	tx        txRunner
	logg      *logger.Logger
}

// NewService wires the delivery engine. The logger is optional.
func NewService(
	ordersRepo orders.Repository,
	catalogRepo catalog.Repository,
	usersRepo users.Repository,
	transport Transport,
	events *outbox.Service,
	tx txRunner,
	logg *logger.Logger,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if transport == nil {
		return nil, fmt.Errorf("delivery transport required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		orders:    ordersRepo,
		catalog:   catalogRepo,
		users:     usersRepo,
		transport: transport,
		events:    events,
		tx:        tx,
		logg:      logg,
	}, nil
}

func (s *service) DispatchOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "order id is required")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return apperrors.New(apperrors.CodeValidation, "order is not paid")
	}

	buyer, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		return err
	}
	if buyer == nil {
		return apperrors.New(apperrors.CodeNotFound, "buyer not found")
	}

	items, err := order.Items()
	if err != nil {
		return err
	}

	var sendErrs error
	var manualIDs []uuid.UUID
	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		deliverable, ok := autoDeliverable(product, item)
		if !ok {
			manualIDs = append(manualIDs, item.ProductID)
			continue
		}
		if err := s.transport.Deliver(ctx, buyer.PlatformID, deliverable); err != nil {
			sendErrs = multierr.Append(sendErrs, fmt.Errorf("deliver %s: %w", item.Name, err))
			manualIDs = append(manualIDs, item.ProductID)
			continue
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":   order.ID.String(),
				"product_id": item.ProductID.String(),
			})
			s.logg.Info(logCtx, "item delivered")
		}
	}

	if len(manualIDs) > 0 {
		emitErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventManualDelivery,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: payloads.ManualDeliveryRequiredEvent{
					OrderID:    order.ID,
					UserID:     order.UserID,
					ProductIDs: manualIDs,
				},
			})
		})
		sendErrs = multierr.Append(sendErrs, emitErr)
	}
	return sendErrs
}

// autoDeliverable reports whether the item can be fulfilled without an
// operator. The product may have been edited or deleted since the snapshot
// was taken; anything uncertain falls back to manual handling.
func autoDeliverable(product *models.Product, item models.OrderItem) (Item, bool) {
	if product == nil || product.DeliveryType != enums.DeliveryTypeAuto {
		return Item{}, false
	}
	payload := ""
	if product.DeliveryPayload != nil {
		payload = *product.DeliveryPayload
	}
	if payload == "" && product.DeliveryFileRef == nil {
		return Item{}, false
	}
	return Item{
		ProductID: item.ProductID,
		Name:      item.Name,
		Qty:       item.Qty,
		Payload:   payload,
		FileRef:   product.DeliveryFileRef,
	}, true
}
