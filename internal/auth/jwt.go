package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the access token claims. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Staff    bool   `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager from the auth configuration
func NewTokenManager(cfg *config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTLDuration(),
		now:    time.Now,
	}
}

// Issue signs a token for the given principal
func (m *TokenManager) Issue(user *UserContext) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}

	now := m.now()
	claims := Claims{
		Username: user.Username,
		Email:    user.Email,
		Staff:    user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.UserID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token and returns the user context it carries
func (m *TokenManager) ValidateToken(tokenString string) (*UserContext, error) {
	claims := &Claims{}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}

	return &UserContext{
		UserID:   uint(id),
		Username: claims.Username,
		Email:    claims.Email,
		IsStaff:  claims.Staff,
	}, nil
}
