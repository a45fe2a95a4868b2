package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/coderr/marketplace-api/internal/mapper"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderService creates order snapshots and drives their status
type OrderService struct {
	db          *gorm.DB
	orderRepo   *repository.OrderRepository
	detailRepo  *repository.OfferDetailRepository
	profileRepo *repository.ProfileRepository
	logger      *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	detailRepo *repository.OfferDetailRepository,
	profileRepo *repository.ProfileRepository,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		db:          db,
		orderRepo:   orderRepo,
		detailRepo:  detailRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// Create snapshots the terms of an offer detail into a new order. The order
// keeps no reference to the detail.
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var (
		order   *domain.Order
		profile *domain.Profile
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = s.profileRepo.WithTx(tx).GetByUserID(ctx, userCtx.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Forbidden("no profile for user")
			}
			return fmt.Errorf("failed to get profile: %w", err)
		}
		if !hasRole(profile, domain.ProfileTypeCustomer) {
			return Forbidden("only customers may create orders")
		}

		detail, err := s.detailRepo.WithTx(tx).GetByID(ctx, req.OfferDetailID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("offer detail not found")
			}
			return fmt.Errorf("failed to get offer detail: %w", err)
		}
		if detail.Offer == nil {
			return NotFound("offer detail not found")
		}

		businessUserID := detail.Offer.UserID
		if isOwner(userCtx, businessUserID) {
			return Forbidden("you cannot order your own offer")
		}

		order = snapshotOrder(detail, userCtx.UserID, businessUserID)
		return s.orderRepo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.WithProfile(s.logger, userCtx.UserID, profile).Info("order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("business_user_id", order.BusinessUserID),
		zap.String("offer_type", string(order.OfferType)),
	)
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// snapshotOrder copies the canonical terms of a detail. Price and features
// are copied verbatim.
func snapshotOrder(detail *domain.OfferDetail, customerID, businessID uint) *domain.Order {
	canonical := NormalizeOfferDetail(detail)
	return &domain.Order{
		CustomerUserID:     customerID,
		BusinessUserID:     businessID,
		Title:              canonical.Title,
		Revisions:          canonical.Revisions,
		DeliveryTimeInDays: canonical.DeliveryTimeInDays,
		Price:              detail.Price,
		Features:           datatypes.NewJSONSlice(slices.Clone(canonical.Features)),
		OfferType:          canonical.OfferType,
		Status:             domain.OrderStatusInProgress,
	}
}

// UpdateStatus changes the status of an order. Only PATCH with a payload
// holding nothing but "status" is accepted, and only from the order's
// business user.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, payload map[string]any, method string) (*domain.OrderDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)

		found, err := orderRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get order: %w", err)
		}
		if method != "PATCH" {
			return errOnlyPatch
		}

		profile, err := s.profileRepo.WithTx(tx).GetByUserID(ctx, userCtx.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		if !hasRole(profile, domain.ProfileTypeBusiness) || !isOwner(userCtx, found.BusinessUserID) {
			return Forbidden("only the business user of this order may change its status")
		}

		if !onlyKeys(payload, "status") {
			return NewNonFieldError("Only the status field may be updated.")
		}
		raw, ok := payload["status"]
		if !ok {
			return NewFieldError("status", "This field is required.")
		}
		value, ok := raw.(string)
		status := domain.OrderStatus(value)
		if !ok || !status.IsValid() {
			return NewFieldError("status", fmt.Sprintf("\"%v\" is not a valid choice.", raw))
		}
		if !domain.CanTransitionOrderStatus(found.Status, status) {
			return NewFieldError("status", fmt.Sprintf("Cannot change status from %s to %s.", found.Status, status))
		}

		if err := orderRepo.UpdateStatus(ctx, found, status); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		found.Status = status
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// Delete removes an order. Staff only.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	if !isStaff(userCtx) {
		return Forbidden("only staff may delete orders")
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.logger.Info("order deleted", zap.Uint("order_id", id), zap.String("by", userCtx.Username))
	return nil
}

// GetByID returns an order to one of its participants or to staff
func (s *OrderService) GetByID(ctx context.Context, id uint) (*domain.OrderDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if !isStaff(userCtx) && !isOrderParticipant(userCtx, order) {
		return nil, Forbidden("you are not a participant of this order")
	}
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// List returns the principal's orders as customer or business, newest first
func (s *OrderService) List(ctx context.Context) ([]domain.OrderDTO, error) {
	userCtx, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListForUser(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToOrderDTO(&orders[i])
	}
	return dtos, nil
}

// InProgressCount counts a business user's in-progress orders
func (s *OrderService) InProgressCount(ctx context.Context, businessUserID uint) (*domain.OrderCountDTO, error) {
	count, err := s.countForBusiness(ctx, businessUserID, domain.OrderStatusInProgress)
	if err != nil {
		return nil, err
	}
	return &domain.OrderCountDTO{OrderCount: count}, nil
}

// CompletedCount counts a business user's completed orders
func (s *OrderService) CompletedCount(ctx context.Context, businessUserID uint) (*domain.CompletedOrderCountDTO, error) {
	count, err := s.countForBusiness(ctx, businessUserID, domain.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	return &domain.CompletedOrderCountDTO{CompletedOrderCount: count}, nil
}

// countForBusiness answers NotFound both for unknown users and for users
// without a business profile
func (s *OrderService) countForBusiness(ctx context.Context, businessUserID uint, status domain.OrderStatus) (int64, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, businessUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NotFound("no business user found with this id")
		}
		return 0, fmt.Errorf("failed to get profile: %w", err)
	}
	if !hasRole(profile, domain.ProfileTypeBusiness) {
		return 0, NotFound("no business user found with this id")
	}

	count, err := s.orderRepo.CountByBusiness(ctx, businessUserID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
