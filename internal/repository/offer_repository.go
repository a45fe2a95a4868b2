package repository

import (
	"context"

	"github.com/coderr/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

// OfferFilters holds the optional filters for offer listing
type OfferFilters struct {
	CreatorID       *uint
	MinPrice        *float64
	MaxDeliveryTime *int
	Search          string
}

// OfferWithStats is an offer together with its per-tier aggregates
type OfferWithStats struct {
	Offer           domain.Offer
	MinPrice        float64
	MinDeliveryTime int
}

// offerStatsRow is the scan target of the aggregate query
type offerStatsRow struct {
	ID              uint
	MinPrice        float64
	MinDeliveryTime int
}

var offerSortFields = map[string]string{
	"updated_at": "offers.updated_at",
	"min_price":  "min_price",
}

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OfferRepository) WithTx(tx *gorm.DB) *OfferRepository {
	return &OfferRepository{db: tx}
}

// Create inserts the offer row and then its details in one batch
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer, details []domain.OfferDetail) error {
	if err := r.db.WithContext(ctx).Omit("User", "Details").Create(offer).Error; err != nil {
		return err
	}
	for i := range details {
		details[i].OfferID = offer.ID
	}
	return r.db.WithContext(ctx).Omit("Offer").Create(&details).Error
}

// GetByID returns an offer with its owner and details
func (r *OfferRepository) GetByID(ctx context.Context, id uint) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("offer_details.id ASC") }).
		First(&offer, id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetWithStats returns an offer with min price and min delivery time
func (r *OfferRepository) GetWithStats(ctx context.Context, id uint) (*OfferWithStats, error) {
	var row offerStatsRow
	err := r.statsQuery(ctx).Where("offers.id = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}
	offer, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OfferWithStats{Offer: *offer, MinPrice: row.MinPrice, MinDeliveryTime: row.MinDeliveryTime}, nil
}

// UpdateFields updates the given columns on an offer and bumps updated_at
func (r *OfferRepository) UpdateFields(ctx context.Context, offer *domain.Offer, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(offer).Omit("User", "Details").Updates(fields).Error
}

// Touch bumps updated_at on the offer
func (r *OfferRepository) Touch(ctx context.Context, offer *domain.Offer) error {
	return r.db.WithContext(ctx).Model(offer).Omit("User", "Details").Update("updated_at", r.db.NowFunc()).Error
}

// Delete removes an offer and its details. Orders are snapshots and are
// not touched.
func (r *OfferRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", id).Delete(&domain.OfferDetail{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Offer{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns one page of offers matching the filters, plus the total
func (r *OfferRepository) List(ctx context.Context, filters *OfferFilters, sort SortConfig, page, pageSize int) ([]OfferWithStats, int64, error) {
	var total int64
	countQuery := r.applyFilters(r.joinedQuery(ctx).Model(&domain.Offer{}), filters)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []offerStatsRow
	query := r.applyFilters(r.statsQuery(ctx), filters).
		Order(BuildOrderClause(sort, offerSortFields, "offers.updated_at")).
		Order("offers.id DESC")
	if err := Paginate(query, page, pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []OfferWithStats{}, total, nil
	}

	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var offers []domain.Offer
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("offer_details.id ASC") }).
		Where("id IN ?", ids).
		Find(&offers).Error
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]domain.Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}

	result := make([]OfferWithStats, 0, len(rows))
	for _, row := range rows {
		if offer, ok := byID[row.ID]; ok {
			result = append(result, OfferWithStats{Offer: offer, MinPrice: row.MinPrice, MinDeliveryTime: row.MinDeliveryTime})
		}
	}
	return result, total, nil
}

func (r *OfferRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Offer{}).Count(&count).Error
	return count, err
}

// joinedQuery joins each offer to the aggregates over its details. The
// delivery time falls back to the legacy column when the canonical one is
// empty.
func (r *OfferRepository) joinedQuery(ctx context.Context) *gorm.DB {
	agg := r.db.Model(&domain.OfferDetail{}).
		Select("offer_id, MIN(price) AS min_price, " +
			"MIN(CASE WHEN delivery_time_in_days IS NOT NULL THEN delivery_time_in_days ELSE delivery_time END) AS min_delivery_time").
		Group("offer_id")
	return r.db.WithContext(ctx).
		Table("offers").
		Joins("LEFT JOIN (?) AS agg ON agg.offer_id = offers.id", agg)
}

func (r *OfferRepository) statsQuery(ctx context.Context) *gorm.DB {
	return r.joinedQuery(ctx).Select(
		"offers.id AS id, COALESCE(agg.min_price, 0) AS min_price, COALESCE(agg.min_delivery_time, 0) AS min_delivery_time",
	)
}

func (r *OfferRepository) applyFilters(query *gorm.DB, filters *OfferFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.CreatorID != nil {
		query = query.Where("offers.user_id = ?", *filters.CreatorID)
	}
	if filters.MinPrice != nil {
		query = query.Where("agg.min_price >= ?", *filters.MinPrice)
	}
	if filters.MaxDeliveryTime != nil {
		query = query.Where("agg.min_delivery_time <= ?", *filters.MaxDeliveryTime)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(offers.title) LIKE ? OR LOWER(offers.description) LIKE ?", pattern, pattern)
	}
	return query
}
