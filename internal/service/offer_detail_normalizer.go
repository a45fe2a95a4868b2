package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultDetailTitle is used when neither title nor legacy name is set
const DefaultDetailTitle = "Paket"

// NormalizeOfferDetail resolves the canonical fields of a detail from its
// current and legacy columns. The first non-empty source wins:
//
//	title                 title, trimmed name, "Paket"
//	offer_type            offer_type, lower-cased trimmed name, "basic"
//	delivery_time_in_days delivery_time_in_days if non-zero, delivery_time, 0
//	revisions             revisions, 0
//	features              features, []
//
// It never fails and is idempotent once the result is written back.
func NormalizeOfferDetail(detail *domain.OfferDetail) domain.CanonicalDetail {
	c := domain.CanonicalDetail{
		Title:     DefaultDetailTitle,
		OfferType: domain.OfferTypeBasic,
		Features:  []string{},
	}
	name := strings.TrimSpace(detail.Name)

	if detail.Title != nil && strings.TrimSpace(*detail.Title) != "" {
		c.Title = *detail.Title
	} else if name != "" {
		c.Title = name
	}

	if detail.OfferType != nil && strings.TrimSpace(string(*detail.OfferType)) != "" {
		c.OfferType = *detail.OfferType
	} else if name != "" {
		c.OfferType = domain.OfferType(strings.ToLower(name))
	}

	switch {
	case detail.DeliveryTimeInDays != nil && *detail.DeliveryTimeInDays != 0:
		c.DeliveryTimeInDays = *detail.DeliveryTimeInDays
	case detail.DeliveryTime != 0:
		c.DeliveryTimeInDays = detail.DeliveryTime
	}

	if detail.Revisions != nil {
		c.Revisions = *detail.Revisions
	}

	if detail.Features != nil && *detail.Features != nil {
		c.Features = slices.Clone([]string(*detail.Features))
	}

	return c
}

// ApplyCanonical writes the canonical values onto the detail and reports
// whether any persisted value changed
func ApplyCanonical(detail *domain.OfferDetail, c domain.CanonicalDetail) bool {
	changed := false

	if detail.Title == nil || *detail.Title != c.Title {
		title := c.Title
		detail.Title = &title
		changed = true
	}
	if detail.OfferType == nil || *detail.OfferType != c.OfferType {
		offerType := c.OfferType
		detail.OfferType = &offerType
		changed = true
	}
	if detail.DeliveryTimeInDays == nil || *detail.DeliveryTimeInDays != c.DeliveryTimeInDays {
		days := c.DeliveryTimeInDays
		detail.DeliveryTimeInDays = &days
		changed = true
	}
	if detail.Revisions == nil || *detail.Revisions != c.Revisions {
		revisions := c.Revisions
		detail.Revisions = &revisions
		changed = true
	}
	if detail.Features == nil || *detail.Features == nil || !slices.Equal([]string(*detail.Features), c.Features) {
		features := datatypes.NewJSONSlice(slices.Clone(c.Features))
		detail.Features = &features
		changed = true
	}

	return changed
}

// OfferDetailNormalizer persists canonical values for stored details
type OfferDetailNormalizer struct {
	db         *gorm.DB
	detailRepo *repository.OfferDetailRepository
	logger     *zap.Logger
}

func NewOfferDetailNormalizer(db *gorm.DB, detailRepo *repository.OfferDetailRepository, logger *zap.Logger) *OfferDetailNormalizer {
	return &OfferDetailNormalizer{
		db:         db,
		detailRepo: detailRepo,
		logger:     logger,
	}
}

// NormalizeAll scans every detail in one transaction and writes back the
// canonical values of those that differ. With dryRun nothing is written.
// A derived tier key that another detail of the same offer already holds is
// not assigned; the detail keeps an empty offer_type and is counted in
// TierConflicts.
func (n *OfferDetailNormalizer) NormalizeAll(ctx context.Context, dryRun bool) (*domain.NormalizationReport, error) {
	report := &domain.NormalizationReport{DryRun: dryRun}

	err := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := n.detailRepo.WithTx(tx)
		claimed := tierClaims{repo: repo, byOffer: make(map[uint]map[domain.OfferType]bool)}

		return repo.EachBatch(ctx, func(batch []domain.OfferDetail) error {
			for i := range batch {
				detail := &batch[i]
				report.Scanned++

				canonical := NormalizeOfferDetail(detail)
				var changed bool
				if hasTierKey(detail) {
					changed = ApplyCanonical(detail, canonical)
				} else {
					free, err := claimed.claim(ctx, detail.OfferID, canonical.OfferType)
					if err != nil {
						return err
					}
					if free {
						changed = ApplyCanonical(detail, canonical)
					} else {
						report.TierConflicts++
						changed = applyCanonicalKeepingTier(detail, canonical)
						n.logger.Warn("offer detail tier already taken, leaving offer_type empty",
							zap.Uint("offer_detail_id", detail.ID),
							zap.Uint("offer_id", detail.OfferID),
							zap.String("offer_type", string(canonical.OfferType)),
						)
					}
				}

				if !changed {
					continue
				}
				report.Changed++
				if dryRun {
					continue
				}
				if err := repo.Save(ctx, detail); err != nil {
					return fmt.Errorf("failed to save offer detail %d: %w", detail.ID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		n.logger.Error("offer detail normalization failed", zap.Error(err))
		return nil, fmt.Errorf("failed to normalize offer details: %w", err)
	}

	n.logger.Info("offer detail normalization finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("changed", report.Changed),
		zap.Int("tier_conflicts", report.TierConflicts),
		zap.Bool("dry_run", dryRun),
	)
	return report, nil
}

func hasTierKey(detail *domain.OfferDetail) bool {
	return detail.OfferType != nil && strings.TrimSpace(string(*detail.OfferType)) != ""
}

// applyCanonicalKeepingTier applies every canonical value except offer_type
func applyCanonicalKeepingTier(detail *domain.OfferDetail, c domain.CanonicalDetail) bool {
	stored := detail.OfferType
	detail.OfferType = &c.OfferType
	changed := ApplyCanonical(detail, c)
	detail.OfferType = stored
	return changed
}

// tierClaims tracks which tier keys each offer holds during one pass,
// seeded from the stored rows the first time an offer is seen
type tierClaims struct {
	repo    *repository.OfferDetailRepository
	byOffer map[uint]map[domain.OfferType]bool
}

// claim reserves offerType for the offer and reports whether it was free
func (c *tierClaims) claim(ctx context.Context, offerID uint, offerType domain.OfferType) (bool, error) {
	held, ok := c.byOffer[offerID]
	if !ok {
		details, err := c.repo.ListByOffer(ctx, offerID)
		if err != nil {
			return false, fmt.Errorf("failed to list details of offer %d: %w", offerID, err)
		}
		held = make(map[domain.OfferType]bool, len(details))
		for i := range details {
			if hasTierKey(&details[i]) {
				held[*details[i].OfferType] = true
			}
		}
		c.byOffer[offerID] = held
	}
	if held[offerType] {
		return false, nil
	}
	held[offerType] = true
	return true, nil
}
