package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/coderr/marketplace-api/internal/auth"
	"github.com/coderr/marketplace-api/internal/domain"
	"github.com/coderr/marketplace-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenIssuer signs access tokens for a principal
type TokenIssuer interface {
	Issue(user *auth.UserContext) (string, error)
}

const msgInvalidCredentials = "Invalid username or password."

// AuthService registers users and exchanges credentials for tokens
type AuthService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	tokens      TokenIssuer
	bcryptCost  int
	logger      *zap.Logger
}

func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	tokens TokenIssuer,
	bcryptCost int,
	logger *zap.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Register creates a user together with its profile and returns a token
func (s *AuthService) Register(ctx context.Context, req *domain.RegistrationRequest) (*domain.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	profileType := req.Type
	if profileType == "" {
		profileType = domain.ProfileTypeCustomer
	}

	vErr := &ValidationError{}
	if msg := passwordStrength(req.Password); msg != "" {
		vErr.Add("password", msg)
	}
	if req.Password != req.RepeatedPassword {
		vErr.Add("repeated_password", "Passwords do not match.")
	}
	if !profileType.IsValid() {
		vErr.Add("type", "Must be one of: customer, business.")
	}

	taken, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		vErr.Add("username", "This username is already taken.")
	}
	taken, err = s.userRepo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		vErr.Add("email", "This email address is already in use.")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DateJoined:   time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return NewNonFieldError("A user with this username or email already exists.")
			}
			return err
		}
		return s.profileRepo.WithTx(tx).Create(ctx, &domain.Profile{UserID: user.ID, Type: profileType})
	})
	if err != nil {
		if _, ok := AsValidationError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("type", string(profileType)),
	)
	return s.respond(user)
}

// Login verifies credentials and returns a fresh token. Unknown users and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNonFieldError(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("login rejected", zap.String("username", req.Username))
		return nil, NewNonFieldError(msgInvalidCredentials)
	}
	return s.respond(user)
}

func (s *AuthService) respond(user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.tokens.Issue(&auth.UserContext{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &domain.AuthResponse{
		Token:    token,
		Username: user.Username,
		Email:    user.Email,
		UserID:   user.ID,
	}, nil
}

// passwordStrength returns a message when the password is too weak
func passwordStrength(password string) string {
	if len(password) < 8 {
		return "Password must be at least 8 characters long."
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return "Password must contain at least one letter and one digit."
	}
	return ""
}
