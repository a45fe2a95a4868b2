package repository

import (
	"context"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Omit("Profile").Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername looks a user up by username, ignoring case
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameExists reports whether the username is taken, ignoring case
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		Count(&count).Error
	return count > 0, err
}

// EmailExists reports whether another user already uses the email.
// excludeID skips the user being updated; pass 0 to check all users.
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.User{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// UpdateFields updates the given columns on a user
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error
}
