package service

import (
	"context"
	"slices"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
)

// Access predicates. Operations evaluate them in a fixed order: principal,
// then role, then ownership, then payload shape.

// requirePrincipal returns the authenticated principal or ErrUnauthorized
func requirePrincipal(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return userCtx, nil
}

func isStaff(userCtx *auth.UserContext) bool {
	return userCtx != nil && userCtx.IsStaff
}

func hasRole(profile *domain.Profile, role domain.ProfileType) bool {
	return profile != nil && profile.Type == role
}

func isOwner(userCtx *auth.UserContext, ownerID uint) bool {
	return userCtx != nil && !userCtx.IsSystem && userCtx.UserID == ownerID
}

func isOrderParticipant(userCtx *auth.UserContext, order *domain.Order) bool {
	return isOwner(userCtx, order.CustomerUserID) || isOwner(userCtx, order.BusinessUserID)
}

// onlyKeys reports whether every key in payload is in allowed
func onlyKeys(payload map[string]any, allowed ...string) bool {
	for key := range payload {
		if !slices.Contains(allowed, key) {
			return false
		}
	}
	return true
}
