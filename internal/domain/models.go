package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BaseModel carries the surrogate key and timestamps shared by most tables
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

// ProfileType is the marketplace role attached to a principal
type ProfileType string

const (
	ProfileTypeCustomer ProfileType = "customer"
	ProfileTypeBusiness ProfileType = "business"
)

// IsValid reports whether the profile type is one of the known roles
func (t ProfileType) IsValid() bool {
	return t == ProfileTypeCustomer || t == ProfileTypeBusiness
}

// User is an authenticated principal
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(50);not null;index:idx_users_username_lower,unique,expression:LOWER(username)"`
	Email        string    `gorm:"type:varchar(254);not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash"`
	FirstName    string    `gorm:"type:varchar(150)"`
	LastName     string    `gorm:"type:varchar(150)"`
	IsStaff      bool      `gorm:"not null;default:false"`
	DateJoined   time.Time `gorm:"not null"`
	Profile      *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Profile holds the role and contact metadata for exactly one user
type Profile struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"`
	UserID       uint        `gorm:"not null;uniqueIndex"`
	User         *User       `gorm:"foreignKey:UserID"`
	Type         ProfileType `gorm:"type:varchar(20);not null;default:customer;index;check:chk_profiles_type,type IN ('customer','business')"`
	Location     *string     `gorm:"type:varchar(255)"`
	Tel          *string     `gorm:"type:varchar(50)"`
	Description  *string     `gorm:"type:text"`
	WorkingHours *string     `gorm:"type:varchar(100)"`
	File         *string     `gorm:"type:varchar(255)"`
	CreatedAt    time.Time   `gorm:"not null"`
}

// Offer is a service published by a business user
type Offer struct {
	BaseModel
	UserID      uint          `gorm:"not null;index"`
	User        *User         `gorm:"foreignKey:UserID"`
	Title       string        `gorm:"type:varchar(255);not null"`
	Image       *string       `gorm:"type:varchar(255)"`
	Description string        `gorm:"type:text"`
	Details     []OfferDetail `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE"`
}

// OfferType is the tier key of an offer detail
type OfferType string

const (
	OfferTypeBasic    OfferType = "basic"
	OfferTypeStandard OfferType = "standard"
	OfferTypePremium  OfferType = "premium"
)

// OfferTypes lists the tiers every offer must define exactly once
var OfferTypes = []OfferType{OfferTypeBasic, OfferTypeStandard, OfferTypePremium}

// IsValid reports whether the tier key is one of the three tiers
func (t OfferType) IsValid() bool {
	switch t {
	case OfferTypeBasic, OfferTypeStandard, OfferTypePremium:
		return true
	}
	return false
}

// OfferDetail is a pricing tier. Title, OfferType and DeliveryTimeInDays are
// the canonical fields; Name and DeliveryTime are kept for rows written
// before those existed and are only read as fallbacks. OfferType is unique
// per offer when set and is not limited to the tier keys, since legacy rows
// normalize to their lower-cased name.
type OfferDetail struct {
	ID                 uint                         `gorm:"primaryKey;autoIncrement"`
	OfferID            uint                         `gorm:"not null;index;uniqueIndex:uniq_offer_details_offer_type,priority:1,where:offer_type IS NOT NULL"`
	Offer              *Offer                       `gorm:"foreignKey:OfferID"`
	Price              decimal.Decimal              `gorm:"type:decimal(10,2);not null;check:chk_offer_details_price,price >= 0"`
	Title              *string                      `gorm:"type:varchar(255)"`
	OfferType          *OfferType                   `gorm:"type:varchar(255);column:offer_type;uniqueIndex:uniq_offer_details_offer_type,priority:2"`
	DeliveryTimeInDays *int                         `gorm:"column:delivery_time_in_days;check:chk_offer_details_delivery_days,delivery_time_in_days >= 0"`
	Revisions          *int                         `gorm:"default:0;check:chk_offer_details_revisions,revisions >= 0"`
	Features           *datatypes.JSONSlice[string] `gorm:"column:features"`
	Name               string                       `gorm:"type:varchar(255)"`
	DeliveryTime       int                          `gorm:"not null;default:1;column:delivery_time;check:chk_offer_details_delivery_time,delivery_time > 0"`
}

// CanonicalDetail is the resolved view of an offer detail after legacy
// fallbacks are applied
type CanonicalDetail struct {
	Title              string
	OfferType          OfferType
	DeliveryTimeInDays int
	Revisions          int
	Features           []string
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every known order status
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// IsValid reports whether the status is one of the five known states
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a snapshot of an offer detail's terms at purchase time. It holds
// no reference to the detail it was created from.
type Order struct {
	BaseModel
	CustomerUserID     uint                        `gorm:"not null;index;check:chk_orders_parties,customer_user_id <> business_user_id"`
	BusinessUserID     uint                        `gorm:"not null;index"`
	Title              string                      `gorm:"type:varchar(255);not null"`
	Revisions          int                         `gorm:"not null;default:0"`
	DeliveryTimeInDays int                         `gorm:"not null;default:0;column:delivery_time_in_days"`
	Price              decimal.Decimal             `gorm:"type:decimal(10,2);not null"`
	Features           datatypes.JSONSlice[string] `gorm:"column:features"`
	OfferType          OfferType                   `gorm:"type:varchar(255);not null"`
	Status             OrderStatus                 `gorm:"type:varchar(20);not null;default:in_progress;index;check:chk_orders_status,status IN ('pending','in_progress','delivered','completed','cancelled')"`
}

// Review is a customer's rating of a business user
type Review struct {
	BaseModel
	BusinessUserID uint   `gorm:"not null;index;uniqueIndex:idx_reviews_reviewer_business,priority:2;check:chk_reviews_not_self,business_user_id <> reviewer_id"`
	ReviewerID     uint   `gorm:"not null;index;uniqueIndex:idx_reviews_reviewer_business,priority:1"`
	Rating         int    `gorm:"not null;index;check:chk_reviews_rating,rating BETWEEN 1 AND 5"`
	Description    string `gorm:"type:text"`
}

// AuditAction represents the type of audited mutation
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog records a successful mutating request
type AuditLog struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	UserID      *uint          `gorm:"index"`
	Username    string         `gorm:"type:varchar(50)"`
	Action      AuditAction    `gorm:"type:varchar(20);not null"`
	EntityType  string         `gorm:"type:varchar(50);not null;index"`
	EntityID    *uint          `gorm:"index"`
	NewValues   datatypes.JSON `gorm:"column:new_values"`
	IPAddress   string         `gorm:"type:varchar(64)"`
	UserAgent   string         `gorm:"type:text"`
	RequestID   string         `gorm:"type:varchar(100)"`
	PerformedAt time.Time      `gorm:"not null;index"`
}
