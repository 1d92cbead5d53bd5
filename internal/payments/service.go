package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/ledger"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox"
	"github.com/angelmondragon/chatstore-backend/pkg/outbox/payloads"
)

const defaultQueueLimit = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubmitProofInput carries a buyer's uploaded payment artifact for an order.
type SubmitProofInput struct {
	UserID      uuid.UUID
	OrderID     uuid.UUID
	MethodID    *uuid.UUID
	ArtifactRef string
}

// Service handles the out-of-band payment flow: proof submission against
// orders, wallet top-up requests, and the admin review queue for both.
// Approvals and rejections are idempotent; replays surface ALREADY_PROCESSED.
type Service interface {
	ListMethods(ctx context.Context) ([]models.PaymentMethod, error)
	GetMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)

	SubmitProof(ctx context.Context, input SubmitProofInput) (*models.PaymentProof, error)
	ApproveProof(ctx context.Context, proofID uuid.UUID) (*models.PaymentProof, error)
	RejectProof(ctx context.Context, proofID uuid.UUID, reason string) (*models.PaymentProof, error)
	PendingProofs(ctx context.Context) ([]models.PaymentProof, error)

	RequestTopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, methodID *uuid.UUID) (*models.TopUp, error)
	AttachTopUpProof(ctx context.Context, topUpID, userID uuid.UUID, artifactRef string) (*models.TopUp, error)
	ApproveTopUp(ctx context.Context, topUpID uuid.UUID) (*models.TopUp, error)
	RejectTopUp(ctx context.Context, topUpID uuid.UUID, reason string) (*models.TopUp, error)
	PendingTopUps(ctx context.Context) ([]models.TopUp, error)
}

type service struct {
	repo   Repository
	orders orders.Repository
	wallet ledger.Service
	events *outbox.Service
	tx     txRunner
	bm     *metrics.BotMetrics
}

// NewService wires the payment service. Metrics are optional.
func NewService(
	repo Repository,
	ordersRepo orders.Repository,
	wallet ledger.Service,
	events *outbox.Service,
	tx txRunner,
	bm *metrics.BotMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if wallet == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:   repo,
		orders: ordersRepo,
		wallet: wallet,
		events: events,
		tx:     tx,
		bm:     bm,
	}, nil
}

func (s *service) ListMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.repo.ListMethods(ctx, true)
}

func (s *service) GetMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "payment method id is required")
	}
	method, err := s.repo.GetMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "payment method not found")
	}
	return method, nil
}

// SubmitProof records the uploaded artifact and parks the order in
// pending_review until an admin decides. A replacement upload supersedes any
// earlier pending proof for the same order, so at most one stays reviewable.
func (s *service) SubmitProof(ctx context.Context, input SubmitProofInput) (*models.PaymentProof, error) {
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id and order id are required")
	}
	if strings.TrimSpace(input.ArtifactRef) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "payment artifact is required")
	}

	var proof *models.PaymentProof
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.GetForUser(ctx, input.OrderID, input.UserID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "order is already paid")
		}
		switch order.Status {
		case enums.OrderStatusPending:
			return apperrors.New(apperrors.CodeValidation, "order must be confirmed before submitting payment")
		case enums.OrderStatusCancelled:
			return apperrors.New(apperrors.CodeValidation, "order is cancelled")
		}

		repo := s.repo.WithTx(tx)
		if err := repo.SupersedePendingProofs(ctx, order.ID); err != nil {
			return err
		}

		proof = &models.PaymentProof{
			OrderID:     order.ID,
			UserID:      input.UserID,
			MethodID:    input.MethodID,
			ArtifactRef: strings.TrimSpace(input.ArtifactRef),
			Status:      enums.ReviewStatusPending,
		}
		if err := repo.CreateProof(ctx, proof); err != nil {
			return err
		}
		if err := ordersRepo.SetPaymentStatus(ctx, order.ID, enums.PaymentStatusPendingReview); err != nil {
			return err
		}
		if err := ordersRepo.SetPaymentProof(ctx, order.ID, proof.ID); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProofSubmitted,
			AggregateType: enums.AggregateProof,
			AggregateID:   proof.ID,
			Data: payloads.ProofSubmittedEvent{
				ProofID: proof.ID,
				OrderID: order.ID,
				UserID:  input.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

func (s *service) ApproveProof(ctx context.Context, proofID uuid.UUID) (*models.PaymentProof, error) {
	proof, err := s.reviewProof(ctx, proofID, enums.ReviewStatusApproved, nil)
	if err != nil {
		return nil, err
	}
	s.bm.IncReview("proof", enums.ReviewStatusApproved.String())
	return proof, nil
}

func (s *service) RejectProof(ctx context.Context, proofID uuid.UUID, reason string) (*models.PaymentProof, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "rejection reason is required")
	}
	proof, err := s.reviewProof(ctx, proofID, enums.ReviewStatusRejected, &reason)
	if err != nil {
		return nil, err
	}
	s.bm.IncReview("proof", enums.ReviewStatusRejected.String())
	return proof, nil
}

// reviewProof applies the decision exactly once. Two compare-and-sets form
// the idempotency barrier: the proof row must still be pending, and the
// order's payment must still be awaiting review. A replayed decision, or a
// decision on a leftover proof for an order another proof already settled,
// loses one of the two and comes back ALREADY_PROCESSED with the whole
// transaction rolled back.
func (s *service) reviewProof(ctx context.Context, proofID uuid.UUID, decision enums.ReviewStatus, reason *string) (*models.PaymentProof, error) {
	if proofID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "proof id is required")
	}

	var proof *models.PaymentProof
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetProof(ctx, proofID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.New(apperrors.CodeNotFound, "payment proof not found")
		}

		ok, err := repo.ReviewProof(ctx, proofID, decision, reason)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "payment proof already reviewed")
		}

		paymentStatus := enums.PaymentStatusPaid
		eventType := enums.EventProofApproved
		if decision == enums.ReviewStatusRejected {
			paymentStatus = enums.PaymentStatusRejected
			eventType = enums.EventProofRejected
		}
		moved, err := s.orders.WithTx(tx).TransitionPaymentStatus(ctx, existing.OrderID, enums.PaymentStatusPendingReview, paymentStatus)
		if err != nil {
			return err
		}
		if !moved {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "order payment already decided")
		}

		reviewed := payloads.ProofReviewedEvent{
			ProofID:  proofID,
			OrderID:  existing.OrderID,
			UserID:   existing.UserID,
			Decision: decision,
		}
		if reason != nil {
			reviewed.Reason = *reason
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateProof,
			AggregateID:   proofID,
			Data:          reviewed,
		}); err != nil {
			return err
		}

		existing.Status = decision
		existing.Reason = reason
		proof = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

func (s *service) PendingProofs(ctx context.Context) ([]models.PaymentProof, error) {
	return s.repo.ListProofsByStatus(ctx, enums.ReviewStatusPending, defaultQueueLimit)
}

func (s *service) RequestTopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, methodID *uuid.UUID) (*models.TopUp, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "top-up amount must be positive")
	}

	topUp := &models.TopUp{
		UserID:   userID,
		MethodID: methodID,
		Amount:   amount,
		Status:   enums.ReviewStatusPending,
	}
	if err := s.repo.CreateTopUp(ctx, topUp); err != nil {
		return nil, err
	}
	return topUp, nil
}

func (s *service) AttachTopUpProof(ctx context.Context, topUpID, userID uuid.UUID, artifactRef string) (*models.TopUp, error) {
	if topUpID == uuid.Nil || userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "top-up id and user id are required")
	}
	artifactRef = strings.TrimSpace(artifactRef)
	if artifactRef == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "payment artifact is required")
	}

	topUp, err := s.repo.GetTopUp(ctx, topUpID)
	if err != nil {
		return nil, err
	}
	if topUp == nil || topUp.UserID != userID {
		return nil, apperrors.New(apperrors.CodeNotFound, "top-up not found")
	}

	ok, err := s.repo.SetTopUpArtifact(ctx, topUpID, artifactRef)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeAlreadyProcessed, "top-up already reviewed")
	}
	topUp.ArtifactRef = artifactRef
	return topUp, nil
}

// ApproveTopUp credits the wallet inside the same transaction that flips the
// review row, so a replay can neither double-credit nor credit without the
// status change.
func (s *service) ApproveTopUp(ctx context.Context, topUpID uuid.UUID) (*models.TopUp, error) {
	if topUpID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "top-up id is required")
	}

	var topUp *models.TopUp
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetTopUp(ctx, topUpID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.New(apperrors.CodeNotFound, "top-up not found")
		}
		if existing.ArtifactRef == "" {
			return apperrors.New(apperrors.CodeValidation, "top-up has no payment artifact to review")
		}

		ok, err := repo.ReviewTopUp(ctx, topUpID, enums.ReviewStatusApproved, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "top-up already reviewed")
		}

		if _, err := s.wallet.Credit(ctx, tx, ledger.EntryInput{
			UserID:  existing.UserID,
			Amount:  existing.Amount,
			Type:    enums.WalletEntryTopUp,
			TopUpID: &existing.ID,
		}); err != nil {
			return err
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTopUpApproved,
			AggregateType: enums.AggregateTopUp,
			AggregateID:   topUpID,
			Data: payloads.TopUpReviewedEvent{
				TopUpID:  topUpID,
				UserID:   existing.UserID,
				Amount:   existing.Amount,
				Decision: enums.ReviewStatusApproved,
			},
		}); err != nil {
			return err
		}

		existing.Status = enums.ReviewStatusApproved
		topUp = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.bm.IncReview("topup", enums.ReviewStatusApproved.String())
	return topUp, nil
}

func (s *service) RejectTopUp(ctx context.Context, topUpID uuid.UUID, reason string) (*models.TopUp, error) {
	if topUpID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "top-up id is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "rejection reason is required")
	}

	var topUp *models.TopUp
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetTopUp(ctx, topUpID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.New(apperrors.CodeNotFound, "top-up not found")
		}

		ok, err := repo.ReviewTopUp(ctx, topUpID, enums.ReviewStatusRejected, &reason)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeAlreadyProcessed, "top-up already reviewed")
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTopUpRejected,
			AggregateType: enums.AggregateTopUp,
			AggregateID:   topUpID,
			Data: payloads.TopUpReviewedEvent{
				TopUpID:  topUpID,
				UserID:   existing.UserID,
				Amount:   existing.Amount,
				Decision: enums.ReviewStatusRejected,
				Reason:   reason,
			},
		}); err != nil {
			return err
		}

		existing.Status = enums.ReviewStatusRejected
		existing.Reason = &reason
		topUp = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.bm.IncReview("topup", enums.ReviewStatusRejected.String())
	return topUp, nil
}

func (s *service) PendingTopUps(ctx context.Context) ([]models.TopUp, error) {
	return s.repo.ListTopUpsByStatus(ctx, enums.ReviewStatusPending, defaultQueueLimit)
}
