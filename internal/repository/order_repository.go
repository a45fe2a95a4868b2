package repository

import (
	"context"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForUser returns orders where the user is customer or business, newest
// first
func (r *OrderRepository) ListForUser(ctx context.Context, userID uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("customer_user_id = ? OR business_user_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	return orders, err
}

// UpdateStatus sets the status and refreshes updated_at
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, status domain.OrderStatus) error {
	return r.db.WithContext(ctx).Model(order).Update("status", status).Error
}

func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Order{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByBusiness counts a business user's orders in the given status
func (r *OrderRepository) CountByBusiness(ctx context.Context, businessUserID uint, status domain.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("business_user_id = ? AND status = ?", businessUserID, status).
		Count(&count).Error
	return count, err
}
