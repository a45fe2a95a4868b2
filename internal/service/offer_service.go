package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/coderr/marketplace-api/internal/mapper"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OfferListParams are the parsed query parameters of the offer list
type OfferListParams struct {
	Filters  repository.OfferFilters
	Ordering string
	Page     int
	PageSize int
}

// OfferOrderings lists the accepted ordering values for offers
var OfferOrderings = []string{"updated_at", "-updated_at", "min_price", "-min_price"}

const defaultOfferOrdering = "-updated_at"

type OfferService struct {
	db          *gorm.DB
	offerRepo   *repository.OfferRepository
	detailRepo  *repository.OfferDetailRepository
	profileRepo *repository.ProfileRepository
	logger      *zap.Logger
}

func NewOfferService(
	db *gorm.DB,
	offerRepo *repository.OfferRepository,
	detailRepo *repository.OfferDetailRepository,
	profileRepo *repository.ProfileRepository,
	logger *zap.Logger,
) *OfferService {
	return &OfferService{
		db:          db,
		offerRepo:   offerRepo,
		detailRepo:  detailRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// Create publishes an offer with its three tiers. Validation happens before
// any write and the offer and its details are inserted atomically.
func (s *OfferService) Create(ctx context.Context, req *domain.CreateOfferRequest) (*domain.OfferDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileFor(ctx, userCtx.UserID)
	if err != nil {
		return nil, err
	}
	if !hasRole(profile, domain.ProfileTypeBusiness) {
		return nil, Forbidden("only business users may create offers")
	}

	details, err := buildTierDetails(req.Details)
	if err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		UserID:      userCtx.UserID,
		Title:       strings.TrimSpace(req.Title),
		Image:       req.Image,
		Description: req.Description,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.offerRepo.WithTx(tx).Create(ctx, offer, details)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	logger.WithProfile(s.logger, userCtx.UserID, profile).Info("offer created",
		zap.Uint("offer_id", offer.ID),
		zap.Int("tiers", len(details)),
	)
	return s.fullOffer(ctx, offer.ID)
}

// Update applies a partial update. Tier payloads address an existing tier by
// its offer_type; the tier key itself is never changed.
func (s *OfferService) Update(ctx context.Context, id uint, req *domain.UpdateOfferRequest) (*domain.OfferDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	offer, err := s.getOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(userCtx, offer.UserID) {
		return nil, Forbidden("only the owner may change this offer")
	}

	updated, err := patchTierDetails(offer.Details, req.Details)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, NewFieldError("title", "This field may not be blank.")
		}
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offerRepo := s.offerRepo.WithTx(tx)
		detailRepo := s.detailRepo.WithTx(tx)
		for _, detail := range updated {
			if err := detailRepo.Save(ctx, detail); err != nil {
				return err
			}
		}
		if len(fields) > 0 {
			return offerRepo.UpdateFields(ctx, offer, fields)
		}
		if len(updated) > 0 {
			return offerRepo.Touch(ctx, offer)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	return s.fullOffer(ctx, offer.ID)
}

// SetImage stores the storage key of an uploaded offer image
func (s *OfferService) SetImage(ctx context.Context, id uint, key string) (*domain.OfferDTO, error) {
	image := key
	return s.Update(ctx, id, &domain.UpdateOfferRequest{Image: &image})
}

// AuthorizeOwner returns ErrNotFound or ErrForbidden unless the principal
// owns the offer
func (s *OfferService) AuthorizeOwner(ctx context.Context, id uint) error {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	offer, err := s.getOffer(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(userCtx, offer.UserID) {
		return Forbidden("only the owner may change this offer")
	}
	return nil
}

// Delete removes an offer and its details. Existing orders are kept.
func (s *OfferService) Delete(ctx context.Context, id uint) error {
	if err := s.AuthorizeOwner(ctx, id); err != nil {
		return err
	}
	if err := s.offerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	s.logger.Info("offer deleted", zap.Uint("offer_id", id))
	return nil
}

// GetByID returns the offer with list annotations
func (s *OfferService) GetByID(ctx context.Context, id uint) (*domain.OfferSummaryDTO, error) {
	result, err := s.offerRepo.GetWithStats(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	dto := mapper.ToOfferSummaryDTO(&result.Offer, result.MinPrice, result.MinDeliveryTime)
	return &dto, nil
}

// GetDetail returns one tier in its canonical form
func (s *OfferService) GetDetail(ctx context.Context, id uint) (*domain.OfferDetailDTO, error) {
	detail, err := s.detailRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer detail: %w", err)
	}
	dto := mapper.ToOfferDetailDTO(detail, NormalizeOfferDetail(detail))
	return &dto, nil
}

// List returns one page of offers
func (s *OfferService) List(ctx context.Context, params OfferListParams) ([]domain.OfferSummaryDTO, int64, error) {
	ordering := params.Ordering
	if ordering == "" {
		ordering = defaultOfferOrdering
	}
	if !slices.Contains(OfferOrderings, ordering) {
		return nil, 0, NewFieldError("ordering", "Invalid value. Allowed: "+strings.Join(OfferOrderings, ", "))
	}

	results, total, err := s.offerRepo.List(ctx, &params.Filters, repository.ParseOrdering(ordering), params.Page, params.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list offers: %w", err)
	}

	dtos := make([]domain.OfferSummaryDTO, len(results))
	for i := range results {
		dtos[i] = mapper.ToOfferSummaryDTO(&results[i].Offer, results[i].MinPrice, results[i].MinDeliveryTime)
	}
	return dtos, total, nil
}

func (s *OfferService) getOffer(ctx context.Context, id uint) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

func (s *OfferService) fullOffer(ctx context.Context, id uint) (*domain.OfferDTO, error) {
	offer, err := s.getOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	details := make([]domain.OfferDetailDTO, len(offer.Details))
	for i := range offer.Details {
		details[i] = mapper.ToOfferDetailDTO(&offer.Details[i], NormalizeOfferDetail(&offer.Details[i]))
	}
	dto := mapper.ToOfferDTO(offer, details)
	return &dto, nil
}

func (s *OfferService) profileFor(ctx context.Context, userID uint) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// buildTierDetails validates a creation payload and returns the rows to
// insert. Checks run in order: count, tier set, then per-tier fields.
func buildTierDetails(inputs []domain.OfferDetailInput) ([]domain.OfferDetail, error) {
	if len(inputs) != len(domain.OfferTypes) {
		return nil, NewFieldError("details", "An offer must have exactly 3 details.")
	}

	seen := make(map[domain.OfferType]int, len(inputs))
	for _, input := range inputs {
		if input.OfferType != nil {
			seen[*input.OfferType]++
		}
	}
	for _, offerType := range domain.OfferTypes {
		if seen[offerType] != 1 {
			return nil, NewFieldError("details", "Details must contain each offer type exactly once: basic, standard, premium.")
		}
	}

	vErr := &ValidationError{}
	details := make([]domain.OfferDetail, len(inputs))
	for i, input := range inputs {
		prefix := fmt.Sprintf("details[%d].", i)

		if input.Price == nil {
			vErr.Add(prefix+"price", "This field is required.")
		} else if input.Price.IsNegative() {
			vErr.Add(prefix+"price", "Ensure this value is greater than or equal to 0.")
		}
		if input.DeliveryTimeInDays == nil {
			vErr.Add(prefix+"delivery_time_in_days", "This field is required.")
		} else if *input.DeliveryTimeInDays <= 0 {
			vErr.Add(prefix+"delivery_time_in_days", "Ensure this value is greater than or equal to 1.")
		}
		if input.Revisions != nil && *input.Revisions < 0 {
			vErr.Add(prefix+"revisions", "Ensure this value is greater than or equal to 0.")
		}
		features, ok := parseFeatures(input.Features)
		if !ok {
			vErr.Add(prefix+"features", "Expected a list of strings.")
		}
		if input.OfferType == nil || !input.OfferType.IsValid() {
			vErr.Add(prefix+"offer_type", "Must be one of: basic, standard, premium.")
		}
		if vErr.HasErrors() {
			continue
		}

		offerType := *input.OfferType
		days := *input.DeliveryTimeInDays
		revisions := 0
		if input.Revisions != nil {
			revisions = *input.Revisions
		}
		title := string(offerType)
		if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
			title = strings.TrimSpace(*input.Title)
		}
		featureSlice := datatypes.NewJSONSlice(features)

		details[i] = domain.OfferDetail{
			Price:              *input.Price,
			Title:              &title,
			OfferType:          &offerType,
			DeliveryTimeInDays: &days,
			Revisions:          &revisions,
			Features:           &featureSlice,
			Name:               title,
			DeliveryTime:       days,
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return details, nil
}

// patchTierDetails applies tier payloads to the existing details and returns
// the changed rows
func patchTierDetails(existing []domain.OfferDetail, inputs []domain.OfferDetailInput) ([]*domain.OfferDetail, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	byType := make(map[domain.OfferType]*domain.OfferDetail, len(existing))
	for i := range existing {
		canonical := NormalizeOfferDetail(&existing[i])
		if _, taken := byType[canonical.OfferType]; !taken {
			byType[canonical.OfferType] = &existing[i]
		}
	}

	vErr := &ValidationError{}
	var changed []*domain.OfferDetail
	for i, input := range inputs {
		prefix := fmt.Sprintf("details[%d].", i)

		if input.OfferType == nil {
			vErr.Add(prefix+"offer_type", "This field is required to identify the tier.")
			continue
		}
		if !input.OfferType.IsValid() {
			vErr.Add(prefix+"offer_type", "Must be one of: basic, standard, premium.")
			continue
		}
		detail, ok := byType[*input.OfferType]
		if !ok {
			vErr.Add("details", fmt.Sprintf("No detail with offer_type '%s' exists for this offer.", *input.OfferType))
			continue
		}
		if input.ID != nil && *input.ID != detail.ID {
			return nil, Conflict(fmt.Sprintf("detail id %d does not match the %s tier", *input.ID, *input.OfferType))
		}

		if input.Title != nil {
			if strings.TrimSpace(*input.Title) == "" {
				vErr.Add(prefix+"title", "This field may not be blank.")
			} else {
				title := strings.TrimSpace(*input.Title)
				detail.Title = &title
			}
		}
		if input.Revisions != nil {
			if *input.Revisions < 0 {
				vErr.Add(prefix+"revisions", "Ensure this value is greater than or equal to 0.")
			} else {
				revisions := *input.Revisions
				detail.Revisions = &revisions
			}
		}
		if input.DeliveryTimeInDays != nil {
			if *input.DeliveryTimeInDays <= 0 {
				vErr.Add(prefix+"delivery_time_in_days", "Ensure this value is greater than or equal to 1.")
			} else {
				days := *input.DeliveryTimeInDays
				detail.DeliveryTimeInDays = &days
				detail.DeliveryTime = days
			}
		}
		if input.Price != nil {
			if input.Price.IsNegative() {
				vErr.Add(prefix+"price", "Ensure this value is greater than or equal to 0.")
			} else {
				detail.Price = *input.Price
			}
		}
		if len(input.Features) > 0 {
			features, ok := parseFeatures(input.Features)
			if !ok {
				vErr.Add(prefix+"features", "Expected a list of strings.")
			} else {
				slice := datatypes.NewJSONSlice(features)
				detail.Features = &slice
			}
		}
		changed = append(changed, detail)
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return changed, nil
}

// parseFeatures accepts an absent value, null or a JSON list of strings
func parseFeatures(raw json.RawMessage) ([]string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []string{}, true
	}
	var features []string
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil, false
	}
	if features == nil {
		features = []string{}
	}
	return features, true
}
