package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	apperrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// Service resolves chat-platform identities to storefront users.
type Service interface {
	// EnsureUser returns the user for the platform identity, creating the
	// record on first contact. Profile fields are refreshed on every call.
	EnsureUser(ctx context.Context, input EnsureUserInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByPlatformID(ctx context.Context, platformID int64) (*models.User, error)
	Ban(ctx context.Context, id uuid.UUID) error
	Unban(ctx context.Context, id uuid.UUID) error
	AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error
}

// EnsureUserInput carries the identity fields the chat platform provides.
type EnsureUserInput struct {
	PlatformID         int64
	DisplayName        string
	Handle             *string
	ReferrerPlatformID *int64
}

type service struct {
	repo Repository
}

// NewService wires a user service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) EnsureUser(ctx context.Context, input EnsureUserInput) (*models.User, error) {
	if input.PlatformID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "platform id is required")
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = fmt.Sprintf("user-%d", input.PlatformID)
	}

	existing, err := s.repo.GetByPlatformID(ctx, input.PlatformID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.DisplayName != displayName || !equalHandle(existing.Handle, input.Handle) {
			if err := s.repo.UpdateProfile(ctx, existing.ID, displayName, input.Handle); err != nil {
				return nil, err
			}
			existing.DisplayName = displayName
			existing.Handle = input.Handle
		}
		return existing, nil
	}

	user := &models.User{
		PlatformID:  input.PlatformID,
		DisplayName: displayName,
		Handle:      input.Handle,
	}

	// Referral links only bind at signup and never to yourself.
	if input.ReferrerPlatformID != nil && *input.ReferrerPlatformID != input.PlatformID {
		referrer, err := s.repo.GetByPlatformID(ctx, *input.ReferrerPlatformID)
		if err != nil {
			return nil, err
		}
		if referrer != nil {
			user.ReferrerID = &referrer.ID
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) GetByPlatformID(ctx context.Context, platformID int64) (*models.User, error) {
	if platformID == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "platform id is required")
	}
	user, err := s.repo.GetByPlatformID(ctx, platformID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) Ban(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.SetBanned(ctx, id, true)
}

func (s *service) Unban(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.SetBanned(ctx, id, false)
}

func (s *service) AdjustPoints(ctx context.Context, id uuid.UUID, delta int) error {
	if id == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.AdjustPoints(ctx, id, delta)
}

func equalHandle(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
