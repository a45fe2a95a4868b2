package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse represents a simple API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse is the envelope for paged list endpoints
type PaginatedResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type RegistrationRequest struct {
	Username         string      `json:"username" validate:"required,max=50"`
	Email            string      `json:"email" validate:"required,email,max=254"`
	Password         string      `json:"password" validate:"required,min=8"`
	RepeatedPassword string      `json:"repeated_password" validate:"required"`
	Type             ProfileType `json:"type" validate:"omitempty,oneof=customer business"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

type ProfileDTO struct {
	User         uint        `json:"user"`
	Username     string      `json:"username"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	File         string      `json:"file"`
	Location     string      `json:"location"`
	Tel          string      `json:"tel"`
	Description  string      `json:"description"`
	WorkingHours string      `json:"working_hours"`
	Type         ProfileType `json:"type"`
	Email        string      `json:"email"`
	CreatedAt    time.Time   `json:"created_at"`
}

// UpdateProfileRequest lists the self-service editable fields. The profile
// type is intentionally absent.
type UpdateProfileRequest struct {
	FirstName    *string `json:"first_name" validate:"omitempty,max=150"`
	LastName     *string `json:"last_name" validate:"omitempty,max=150"`
	Email        *string `json:"email" validate:"omitempty,email,max=254"`
	Location     *string `json:"location" validate:"omitempty,max=255"`
	Tel          *string `json:"tel" validate:"omitempty,max=50"`
	Description  *string `json:"description"`
	WorkingHours *string `json:"working_hours" validate:"omitempty,max=100"`
}

type UpdateProfileTypeRequest struct {
	Type ProfileType `json:"type" validate:"required,oneof=customer business"`
}

// ---------------------------------------------------------------------------
// Offers
// ---------------------------------------------------------------------------

// OfferDetailInput is a tier payload. Features is kept raw so that a
// non-list value can be reported against the tier instead of failing the
// whole body.
type OfferDetailInput struct {
	ID                 *uint            `json:"id,omitempty"`
	Title              *string          `json:"title,omitempty"`
	Revisions          *int             `json:"revisions,omitempty"`
	DeliveryTimeInDays *int             `json:"delivery_time_in_days,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	Features           json.RawMessage  `json:"features,omitempty"`
	OfferType          *OfferType       `json:"offer_type,omitempty"`
}

type CreateOfferRequest struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Image       *string            `json:"image,omitempty"`
	Description string             `json:"description"`
	Details     []OfferDetailInput `json:"details"`
}

type UpdateOfferRequest struct {
	Title       *string            `json:"title,omitempty" validate:"omitempty,max=255"`
	Image       *string            `json:"image,omitempty"`
	Description *string            `json:"description,omitempty"`
	Details     []OfferDetailInput `json:"details,omitempty"`
}

type OfferDetailDTO struct {
	ID                 uint            `json:"id"`
	Title              string          `json:"title"`
	Revisions          int             `json:"revisions"`
	DeliveryTimeInDays int             `json:"delivery_time_in_days"`
	Price              decimal.Decimal `json:"price"`
	Features           []string        `json:"features"`
	OfferType          OfferType       `json:"offer_type"`
}

type OfferDetailLinkDTO struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

type OfferUserDetailsDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// OfferDTO is the full offer representation returned on create and patch
type OfferDTO struct {
	ID          uint             `json:"id"`
	User        uint             `json:"user"`
	Title       string           `json:"title"`
	Image       *string          `json:"image"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Details     []OfferDetailDTO `json:"details"`
}

// OfferSummaryDTO is the list and retrieve representation with aggregates
type OfferSummaryDTO struct {
	ID              uint                 `json:"id"`
	User            uint                 `json:"user"`
	Title           string               `json:"title"`
	Image           *string              `json:"image"`
	Description     string               `json:"description"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Details         []OfferDetailLinkDTO `json:"details"`
	MinPrice        float64              `json:"min_price"`
	MinDeliveryTime int                  `json:"min_delivery_time"`
	UserDetails     *OfferUserDetailsDTO `json:"user_details,omitempty"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

type CreateOrderRequest struct {
	OfferDetailID uint `json:"offer_detail_id" validate:"required,gt=0"`
}

type OrderDTO struct {
	ID                 uint            `json:"id"`
	CustomerUser       uint            `json:"customer_user"`
	BusinessUser       uint            `json:"business_user"`
	Title              string          `json:"title"`
	Revisions          int             `json:"revisions"`
	DeliveryTimeInDays int             `json:"delivery_time_in_days"`
	Price              decimal.Decimal `json:"price"`
	Features           []string        `json:"features"`
	OfferType          OfferType       `json:"offer_type"`
	Status             OrderStatus     `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type OrderCountDTO struct {
	OrderCount int64 `json:"order_count"`
}

type CompletedOrderCountDTO struct {
	CompletedOrderCount int64 `json:"completed_order_count"`
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

type CreateReviewRequest struct {
	BusinessUser uint   `json:"business_user" validate:"required,gt=0"`
	Rating       int    `json:"rating" validate:"required,gte=1,lte=5"`
	Description  string `json:"description"`
}

type ReviewDTO struct {
	ID           uint      `json:"id"`
	BusinessUser uint      `json:"business_user"`
	Reviewer     uint      `json:"reviewer"`
	Rating       int       `json:"rating"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ---------------------------------------------------------------------------
// Reporting and maintenance
// ---------------------------------------------------------------------------

type BaseInfoDTO struct {
	ReviewCount          int64   `json:"review_count"`
	AverageRating        float64 `json:"average_rating"`
	BusinessProfileCount int64   `json:"business_profile_count"`
	OfferCount           int64   `json:"offer_count"`
}

type AuditLogDTO struct {
	ID          uint            `json:"id"`
	UserID      *uint           `json:"user_id"`
	Username    string          `json:"username"`
	Action      AuditAction     `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    *uint           `json:"entity_id"`
	NewValues   json.RawMessage `json:"new_values,omitempty"`
	IPAddress   string          `json:"ip_address,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
	PerformedAt time.Time       `json:"performed_at"`
}

// NormalizationReport summarizes a normalization pass over offer details
type NormalizationReport struct {
	Scanned       int  `json:"scanned"`
	Changed       int  `json:"changed"`
	TierConflicts int  `json:"tier_conflicts"`
	DryRun        bool `json:"dry_run"`
}
