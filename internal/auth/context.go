package auth

import (
	"context"
)

// SystemUsername is the principal name used for admin API key requests
const SystemUsername = "system"

// UserContext holds authenticated user information
type UserContext struct {
	UserID   uint
	Username string
	Email    string
	IsStaff  bool
	// IsSystem marks the API key principal, which has no user row
	IsSystem bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// SystemUser returns the staff principal assigned to admin API key requests
func SystemUser() *UserContext {
	return &UserContext{
		Username: SystemUsername,
		Email:    "system@coderr.local",
		IsStaff:  true,
		IsSystem: true,
	}
}
