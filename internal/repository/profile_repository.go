package repository

import (
	"context"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	return r.db.WithContext(ctx).Omit("User").Create(profile).Error
}

// GetByUserID returns the profile of a user with the user preloaded
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uint) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateFields updates the given columns on a profile
func (r *ProfileRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", id).Updates(fields).Error
}

// ListByType returns all profiles of one type, oldest first
func (r *ProfileRepository) ListByType(ctx context.Context, profileType domain.ProfileType) ([]domain.Profile, error) {
	var profiles []domain.Profile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("type = ?", profileType).
		Order("id ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) CountByType(ctx context.Context, profileType domain.ProfileType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("type = ?", profileType).Count(&count).Error
	return count, err
}
