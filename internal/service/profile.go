package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// ProfileService manages the contact directory.
type ProfileService struct {
	store    store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(st store.Store, validate *validation.Validator, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:    st,
		validate: validate,
		logger:   logger,
	}
}

// UpdateProfileRequest holds directory profile input.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	JobTitle  *string `json:"job_title,omitempty" validate:"omitempty,max=100"`
	Sector    *string `json:"sector,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// GetProfile returns one directory entry. Any authenticated user can
// read the directory.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

// ListProfiles returns the whole contact directory.
func (s *ProfileService) ListProfiles(ctx context.Context) ([]*domain.Profile, error) {
	return s.store.ListProfiles(ctx)
}

// UpdateProfile applies partial updates. Users edit their own entry;
// admins can edit anyone's.
func (s *ProfileService) UpdateProfile(ctx context.Context, user *domain.User, userID string, req UpdateProfileRequest) (*domain.Profile, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if user.ID != userID && !user.IsAdmin() {
		return nil, apperrors.Forbidden("you can only edit your own profile")
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		profile.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		profile.LastName = *req.LastName
	}
	if req.JobTitle != nil {
		profile.JobTitle = *req.JobTitle
	}
	if req.Sector != nil {
		profile.Sector = *req.Sector
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// SetScopes replaces a profile's feature scopes. Admin only.
func (s *ProfileService) SetScopes(ctx context.Context, user *domain.User, userID string, scopes []string) (*domain.Profile, error) {
	if !user.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can change feature scopes")
	}
	for _, scope := range scopes {
		switch scope {
		case domain.ScopeBoards, domain.ScopeAgenda, domain.ScopeEquipment, domain.ScopeReports:
		default:
			return nil, apperrors.Validationf("unknown scope %q", scope)
		}
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Scopes = scopes
	profile.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("profile scopes changed", "user_id", userID, "actor_id", user.ID, "scopes", scopes)
	return profile, nil
}
