package mapper_test

import (
	"testing"

	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/mapper"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToProfileDTO_NullFieldsRenderEmpty(t *testing.T) {
	file := "avatars/42/3f1c-me.png"
	profile := &domain.Profile{
		UserID: 42,
		Type:   domain.ProfileTypeBusiness,
		File:   &file,
		User:   &domain.User{ID: 42, Username: "mara", Email: "mara@example.com"},
	}

	dto := mapper.ToProfileDTO(profile)

	assert.Equal(t, uint(42), dto.User)
	assert.Equal(t, "mara", dto.Username)
	assert.Equal(t, "", dto.Location)
	assert.Equal(t, "", dto.Tel)
	assert.Equal(t, "", dto.Description)
	assert.Equal(t, "", dto.WorkingHours)
	assert.Equal(t, "3f1c-me.png", dto.File)
	assert.Equal(t, domain.ProfileTypeBusiness, dto.Type)
}

func TestToOfferSummaryDTO(t *testing.T) {
	offer := &domain.Offer{
		BaseModel: domain.BaseModel{ID: 5},
		UserID:    3,
		Title:     "Website",
		User:      &domain.User{ID: 3, Username: "webshop", FirstName: "Web", LastName: "Shop"},
		Details:   []domain.OfferDetail{{ID: 11}, {ID: 12}, {ID: 13}},
	}

	dto := mapper.ToOfferSummaryDTO(offer, 100, 5)

	require.Len(t, dto.Details, 3)
	assert.Equal(t, "/api/v1/offerdetails/11", dto.Details[0].URL)
	assert.Equal(t, 100.0, dto.MinPrice)
	assert.Equal(t, 5, dto.MinDeliveryTime)
	require.NotNil(t, dto.UserDetails)
	assert.Equal(t, "webshop", dto.UserDetails.Username)
}

func TestToOrderDTO_NilFeaturesBecomeEmptyList(t *testing.T) {
	order := &domain.Order{
		Title:     "Basic",
		Price:     decimal.RequireFromString("99.50"),
		OfferType: domain.OfferTypeBasic,
		Status:    domain.OrderStatusInProgress,
	}

	dto := mapper.ToOrderDTO(order)

	assert.NotNil(t, dto.Features)
	assert.Empty(t, dto.Features)
	assert.True(t, decimal.RequireFromString("99.5").Equal(dto.Price))
}
