package mapper

import (
	"fmt"
	"path"

	"github.com/coderr/marketplace-api/internal/domain"
)

// OfferDetailPath is the route prefix used for detail link stubs
const OfferDetailPath = "/api/v1/offerdetails/"

// ToProfileDTO converts a Profile with its User to ProfileDTO. Null text
// fields render as empty strings and the avatar as its file name.
func ToProfileDTO(profile *domain.Profile) domain.ProfileDTO {
	dto := domain.ProfileDTO{
		User:         profile.UserID,
		Type:         profile.Type,
		Location:     deref(profile.Location),
		Tel:          deref(profile.Tel),
		Description:  deref(profile.Description),
		WorkingHours: deref(profile.WorkingHours),
		CreatedAt:    profile.CreatedAt,
	}
	if profile.File != nil && *profile.File != "" {
		dto.File = path.Base(*profile.File)
	}
	if profile.User != nil {
		dto.Username = profile.User.Username
		dto.FirstName = profile.User.FirstName
		dto.LastName = profile.User.LastName
		dto.Email = profile.User.Email
	}
	return dto
}

// ToOfferDetailDTO converts a detail using its canonical values
func ToOfferDetailDTO(detail *domain.OfferDetail, canonical domain.CanonicalDetail) domain.OfferDetailDTO {
	features := canonical.Features
	if features == nil {
		features = []string{}
	}
	return domain.OfferDetailDTO{
		ID:                 detail.ID,
		Title:              canonical.Title,
		Revisions:          canonical.Revisions,
		DeliveryTimeInDays: canonical.DeliveryTimeInDays,
		Price:              detail.Price,
		Features:           features,
		OfferType:          canonical.OfferType,
	}
}

// ToOfferDTO converts an offer and its already mapped details
func ToOfferDTO(offer *domain.Offer, details []domain.OfferDetailDTO) domain.OfferDTO {
	if details == nil {
		details = []domain.OfferDetailDTO{}
	}
	return domain.OfferDTO{
		ID:          offer.ID,
		User:        offer.UserID,
		Title:       offer.Title,
		Image:       offer.Image,
		Description: offer.Description,
		CreatedAt:   offer.CreatedAt,
		UpdatedAt:   offer.UpdatedAt,
		Details:     details,
	}
}

// ToOfferDetailLinkDTO builds the link stub used in offer lists
func ToOfferDetailLinkDTO(id uint) domain.OfferDetailLinkDTO {
	return domain.OfferDetailLinkDTO{
		ID:  id,
		URL: fmt.Sprintf("%s%d", OfferDetailPath, id),
	}
}

// ToOfferSummaryDTO converts an offer with its aggregates
func ToOfferSummaryDTO(offer *domain.Offer, minPrice float64, minDeliveryTime int) domain.OfferSummaryDTO {
	links := make([]domain.OfferDetailLinkDTO, len(offer.Details))
	for i, detail := range offer.Details {
		links[i] = ToOfferDetailLinkDTO(detail.ID)
	}

	dto := domain.OfferSummaryDTO{
		ID:              offer.ID,
		User:            offer.UserID,
		Title:           offer.Title,
		Image:           offer.Image,
		Description:     offer.Description,
		CreatedAt:       offer.CreatedAt,
		UpdatedAt:       offer.UpdatedAt,
		Details:         links,
		MinPrice:        minPrice,
		MinDeliveryTime: minDeliveryTime,
	}
	if offer.User != nil {
		dto.UserDetails = &domain.OfferUserDetailsDTO{
			FirstName: offer.User.FirstName,
			LastName:  offer.User.LastName,
			Username:  offer.User.Username,
		}
	}
	return dto
}

// ToOrderDTO converts an Order to OrderDTO
func ToOrderDTO(order *domain.Order) domain.OrderDTO {
	features := []string(order.Features)
	if features == nil {
		features = []string{}
	}
	return domain.OrderDTO{
		ID:                 order.ID,
		CustomerUser:       order.CustomerUserID,
		BusinessUser:       order.BusinessUserID,
		Title:              order.Title,
		Revisions:          order.Revisions,
		DeliveryTimeInDays: order.DeliveryTimeInDays,
		Price:              order.Price,
		Features:           features,
		OfferType:          order.OfferType,
		Status:             order.Status,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

// ToReviewDTO converts a Review to ReviewDTO
func ToReviewDTO(review *domain.Review) domain.ReviewDTO {
	return domain.ReviewDTO{
		ID:           review.ID,
		BusinessUser: review.BusinessUserID,
		Reviewer:     review.ReviewerID,
		Rating:       review.Rating,
		Description:  review.Description,
		CreatedAt:    review.CreatedAt,
		UpdatedAt:    review.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
