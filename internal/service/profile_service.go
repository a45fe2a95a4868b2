package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/mapper"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileService resolves principals to profiles and edits them
type ProfileService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	logger      *zap.Logger
}

func NewProfileService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// GetByUserID returns the profile of a user
func (s *ProfileService) GetByUserID(ctx context.Context, userID uint) (*domain.ProfileDTO, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToProfileDTO(profile)
	return &dto, nil
}

// Update applies a self-service edit. Name and email live on the user row,
// the rest on the profile. The profile type cannot be changed here.
func (s *ProfileService) Update(ctx context.Context, userID uint, req *domain.UpdateProfileRequest) (*domain.ProfileDTO, error) {
	if err := s.AuthorizeOwner(ctx, userID); err != nil {
		return nil, err
	}

	userFields := map[string]interface{}{}
	if req.FirstName != nil {
		userFields["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		userFields["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, NewFieldError("email", "This field may not be blank.")
		}
		taken, err := s.userRepo.EmailExists(ctx, email, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, NewFieldError("email", "This email address is already in use.")
		}
		userFields["email"] = email
	}

	profileFields := map[string]interface{}{}
	if req.Location != nil {
		profileFields["location"] = *req.Location
	}
	if req.Tel != nil {
		profileFields["tel"] = *req.Tel
	}
	if req.Description != nil {
		profileFields["description"] = *req.Description
	}
	if req.WorkingHours != nil {
		profileFields["working_hours"] = *req.WorkingHours
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err := s.profileRepo.WithTx(tx).GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.userRepo.WithTx(tx).UpdateFields(ctx, userID, userFields); err != nil {
			return err
		}
		return s.profileRepo.WithTx(tx).UpdateFields(ctx, profile.ID, profileFields)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetByUserID(ctx, userID)
}

// SetFile stores the storage key of an uploaded avatar
func (s *ProfileService) SetFile(ctx context.Context, userID uint, key string) (*domain.ProfileDTO, error) {
	if err := s.AuthorizeOwner(ctx, userID); err != nil {
		return nil, err
	}
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.UpdateFields(ctx, profile.ID, map[string]interface{}{"file": key}); err != nil {
		return nil, fmt.Errorf("failed to update profile file: %w", err)
	}
	return s.GetByUserID(ctx, userID)
}

// AuthorizeOwner returns ErrNotFound or ErrForbidden unless the principal
// owns the profile
func (s *ProfileService) AuthorizeOwner(ctx context.Context, userID uint) error {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	if _, err := s.getProfile(ctx, userID); err != nil {
		return err
	}
	if !isOwner(userCtx, userID) {
		return Forbidden("you may only edit your own profile")
	}
	return nil
}

// ListByType returns every profile of one role
func (s *ProfileService) ListByType(ctx context.Context, profileType domain.ProfileType) ([]domain.ProfileDTO, error) {
	profiles, err := s.profileRepo.ListByType(ctx, profileType)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	dtos := make([]domain.ProfileDTO, len(profiles))
	for i := range profiles {
		dtos[i] = mapper.ToProfileDTO(&profiles[i])
	}
	return dtos, nil
}

// UpdateType changes the role of a profile. Staff only.
func (s *ProfileService) UpdateType(ctx context.Context, userID uint, profileType domain.ProfileType) (*domain.ProfileDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if !isStaff(userCtx) {
		return nil, Forbidden("only staff may change the profile type")
	}
	if !profileType.IsValid() {
		return nil, NewFieldError("type", "Must be one of: customer, business.")
	}

	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.UpdateFields(ctx, profile.ID, map[string]interface{}{"type": profileType}); err != nil {
		return nil, fmt.Errorf("failed to update profile type: %w", err)
	}

	s.logger.Info("profile type changed",
		zap.Uint("user_id", userID),
		zap.String("from", string(profile.Type)),
		zap.String("to", string(profileType)),
		zap.String("by", userCtx.Username),
	)
	return s.GetByUserID(ctx, userID)
}

func (s *ProfileService) getProfile(ctx context.Context, userID uint) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("profile not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}
