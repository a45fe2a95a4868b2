package repository

import (
	"context"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

// normalizeBatchSize bounds how many detail rows are held in memory during a
// full-table pass
const normalizeBatchSize = 200

type OfferDetailRepository struct {
	db *gorm.DB
}

func NewOfferDetailRepository(db *gorm.DB) *OfferDetailRepository {
	return &OfferDetailRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OfferDetailRepository) WithTx(tx *gorm.DB) *OfferDetailRepository {
	return &OfferDetailRepository{db: tx}
}

// GetByID returns a detail with its parent offer preloaded
func (r *OfferDetailRepository) GetByID(ctx context.Context, id uint) (*domain.OfferDetail, error) {
	var detail domain.OfferDetail
	err := r.db.WithContext(ctx).Preload("Offer").First(&detail, id).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByOffer returns the details of one offer in insertion order
func (r *OfferDetailRepository) ListByOffer(ctx context.Context, offerID uint) ([]domain.OfferDetail, error) {
	var details []domain.OfferDetail
	err := r.db.WithContext(ctx).Where("offer_id = ?", offerID).Order("id ASC").Find(&details).Error
	return details, err
}

// Save writes every column of the detail
func (r *OfferDetailRepository) Save(ctx context.Context, detail *domain.OfferDetail) error {
	return r.db.WithContext(ctx).Omit("Offer").Save(detail).Error
}

// Create inserts a single detail
func (r *OfferDetailRepository) Create(ctx context.Context, detail *domain.OfferDetail) error {
	return r.db.WithContext(ctx).Omit("Offer").Create(detail).Error
}

// EachBatch walks every detail row in id order and calls fn per batch. The
// batch callback runs against the repository's connection, so wrapping the
// call in a transaction makes the whole pass atomic.
func (r *OfferDetailRepository) EachBatch(ctx context.Context, fn func(batch []domain.OfferDetail) error) error {
	var batch []domain.OfferDetail
	result := r.db.WithContext(ctx).
		FindInBatches(&batch, normalizeBatchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

func (r *OfferDetailRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OfferDetail{}).Count(&count).Error
	return count, err
}
